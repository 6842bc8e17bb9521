package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gmoraes/peneira/internal/common"
)

// cleanMarkdownWrapper strips markdown code fences that some models
// insist on wrapping JSON responses in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

// parseClassification decodes the JSON body a provider returned for a
// classification prompt. Malformed payloads are retryable within the
// bounded backoff: the model answers stochastically, so the next
// attempt can come back well-formed.
func parseClassification(content string) (ClassificationResponse, error) {
	var jsonResp struct {
		NormalizedName  string  `json:"normalized_name"`
		CategoryCode    string  `json:"category_code"`
		CategoryName    string  `json:"category_name"`
		SubcategoryCode string  `json:"subcategory_code"`
		SubcategoryName string  `json:"subcategory_name"`
		Reasoning       string  `json:"reasoning"`
		Confidence      float64 `json:"confidence"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return ClassificationResponse{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: %v", common.ErrMalformedResponse, err),
			Retryable: true,
		}
	}

	if jsonResp.CategoryCode == "" {
		return ClassificationResponse{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: no category code in response", common.ErrMalformedResponse),
			Retryable: true,
		}
	}

	if jsonResp.Confidence < 0 {
		jsonResp.Confidence = 0
	} else if jsonResp.Confidence > 1 {
		jsonResp.Confidence = 1
	}

	return ClassificationResponse{
		NormalizedName:  jsonResp.NormalizedName,
		CategoryCode:    jsonResp.CategoryCode,
		CategoryName:    jsonResp.CategoryName,
		SubcategoryCode: jsonResp.SubcategoryCode,
		SubcategoryName: jsonResp.SubcategoryName,
		Reasoning:       jsonResp.Reasoning,
		Confidence:      jsonResp.Confidence,
	}, nil
}

// classifyError maps an HTTP status to the right retry semantics.
// Every provider failure stays inside the bounded backoff; rate limits
// additionally jump the delay straight to its cap.
func classifyError(provider string, statusCode int, body []byte) error {
	base := fmt.Errorf("%s API error (status %d): %s", provider, statusCode, string(body))

	if statusCode == 429 {
		return fmt.Errorf("%w: %v", common.ErrRateLimit, base)
	}
	return &common.RetryableError{Err: base, Retryable: true}
}
