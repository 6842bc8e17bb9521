package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gmoraes/peneira/internal/common"
	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/service"
	"github.com/gmoraes/peneira/internal/taxonomy"
)

// Classifier wraps a raw provider client with caching, rate limiting,
// retry, and taxonomy validation. This is the surface the orchestration
// engine talks to.
type Classifier struct {
	client    Client
	cache     *resultCache
	limiter   *rate.Limiter
	tax       *taxonomy.Taxonomy
	retryOpts service.RetryOptions
}

// NewClassifier creates a classifier around the given provider client.
func NewClassifier(client Client, tax *taxonomy.Taxonomy, cfg Config) *Classifier {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Classifier{
		client:  client,
		cache:   newResultCache(cfg.CacheTTL),
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		tax:     tax,
	}
}

// WithRetryOptions overrides the default retry behavior.
func (c *Classifier) WithRetryOptions(opts service.RetryOptions) *Classifier {
	c.retryOpts = opts
	return c
}

// Classify classifies a single product into the taxonomy. Identical
// names within the cache TTL are served from cache without touching the
// provider.
func (c *Classifier) Classify(ctx context.Context, product model.Product) (model.ClassificationResult, error) {
	cacheKey := classificationCacheKey(product)

	if cached, ok := c.cache.get(cacheKey); ok {
		slog.Debug("Classification cache hit", "product", product.RawName)
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	prompt := c.buildPrompt(product)

	// Validation runs inside the retry loop: a parseable answer with a
	// made-up taxonomy code is as retryable as broken JSON.
	var result model.ClassificationResult
	err := common.WithRetry(ctx, func() error {
		response, classifyErr := c.client.Classify(ctx, prompt)
		if classifyErr != nil {
			return classifyErr
		}

		validated, validateErr := c.validate(response)
		if validateErr != nil {
			return validateErr
		}

		result = validated
		return nil
	}, c.retryOpts)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	c.cache.set(cacheKey, result)
	return result, nil
}

// Close releases the classifier's background resources.
func (c *Classifier) Close() {
	c.cache.Close()
}

// validate checks the provider's answer against the taxonomy and fills
// in canonical names for the returned codes.
func (c *Classifier) validate(response ClassificationResponse) (model.ClassificationResult, error) {
	if !c.tax.Valid(response.CategoryCode, response.SubcategoryCode) {
		return model.ClassificationResult{}, &common.RetryableError{
			Err: fmt.Errorf("%w: unknown classification %s/%s",
				common.ErrMalformedResponse, response.CategoryCode, response.SubcategoryCode),
			Retryable: true,
		}
	}

	result := model.ClassificationResult{
		NormalizedName:  response.NormalizedName,
		CategoryCode:    response.CategoryCode,
		SubcategoryCode: response.SubcategoryCode,
		SubcategoryName: response.SubcategoryName,
		Reasoning:       response.Reasoning,
		Confidence:      response.Confidence,
	}

	// Canonical category name always comes from the tree, not the model.
	if cat, ok := c.tax.Category(response.CategoryCode); ok {
		result.CategoryName = cat.Name
		for _, sub := range cat.Subcategories {
			if sub.Code == response.SubcategoryCode {
				result.SubcategoryName = sub.Name
				break
			}
		}
	}

	return result, nil
}

func (c *Classifier) buildPrompt(product model.Product) string {
	var b strings.Builder

	b.WriteString("Classify this product into exactly one category and subcategory from the taxonomy below.\n\n")

	fmt.Fprintf(&b, "Product: %s\n", product.RawName)
	if product.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", product.Brand)
	}
	if product.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", product.Model)
	}
	if product.OriginalCategory != "" {
		fmt.Fprintf(&b, "Legacy category: %s\n", product.OriginalCategory)
	}

	b.WriteString("\nTaxonomy:\n")
	b.WriteString(c.tax.PromptContext())

	b.WriteString(`
Respond with a JSON object with exactly these fields:
{
  "normalized_name": "cleaned product name, uppercase, no abbreviations",
  "category_code": "S__",
  "category_name": "category name",
  "subcategory_code": "C___",
  "subcategory_name": "subcategory name",
  "confidence": 0.0 to 1.0,
  "reasoning": "one short sentence"
}`)

	return b.String()
}

func classificationCacheKey(product model.Product) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(product.RawName))))
	return hex.EncodeToString(h[:])
}
