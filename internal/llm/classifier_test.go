package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmoraes/peneira/internal/common"
	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/service"
	"github.com/gmoraes/peneira/internal/taxonomy"
)

// scriptedClient returns queued responses in order, then repeats the last.
type scriptedClient struct {
	responses []ClassificationResponse
	errs      []error
	calls     int
	mu        sync.Mutex
}

func (c *scriptedClient) Classify(_ context.Context, _ string) (ClassificationResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	if c.errs[idx] != nil {
		return ClassificationResponse{}, c.errs[idx]
	}
	return c.responses[idx], nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func validResponse() ClassificationResponse {
	return ClassificationResponse{
		NormalizedName:  "PARAFUSO SEXTAVADO",
		CategoryCode:    "S39",
		SubcategoryCode: "C308",
		Confidence:      0.95,
		Reasoning:       "fastener",
	}
}

func fastRetries() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func testClassifier(t *testing.T, client Client) *Classifier {
	t.Helper()

	tax, err := taxonomy.Default()
	require.NoError(t, err)

	c := NewClassifier(client, tax, Config{RequestsPerMinute: 100000}).
		WithRetryOptions(fastRetries())
	t.Cleanup(c.Close)
	return c
}

func TestClassifierFillsCanonicalNames(t *testing.T) {
	client := &scriptedClient{
		responses: []ClassificationResponse{validResponse()},
		errs:      []error{nil},
	}
	c := testClassifier(t, client)

	result, err := c.Classify(context.Background(), model.Product{RawName: "PARAFUSO SEXT 1/2"})
	require.NoError(t, err)

	assert.Equal(t, "S39", result.CategoryCode)
	assert.Equal(t, "ELEMENTOS DE FIXAÇÃO E VEDAÇÃO", result.CategoryName)
	assert.Equal(t, "Parafusos, pregos, porcas, buchas e arruelas", result.SubcategoryName)
}

func TestClassifierCachesByName(t *testing.T) {
	client := &scriptedClient{
		responses: []ClassificationResponse{validResponse()},
		errs:      []error{nil},
	}
	c := testClassifier(t, client)

	product := model.Product{RawName: "PARAFUSO SEXT 1/2"}

	_, err := c.Classify(context.Background(), product)
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), product)
	require.NoError(t, err)

	assert.Equal(t, 1, client.callCount(), "second call must hit the cache")

	// Case and whitespace variants share the cache entry.
	_, err = c.Classify(context.Background(), model.Product{RawName: "  parafuso sext 1/2 "})
	require.NoError(t, err)
	assert.Equal(t, 1, client.callCount())
}

func TestClassifierRetriesTransientFailures(t *testing.T) {
	transient := &common.RetryableError{Err: errors.New("overloaded"), Retryable: true}
	client := &scriptedClient{
		responses: []ClassificationResponse{{}, {}, validResponse()},
		errs:      []error{transient, transient, nil},
	}
	c := testClassifier(t, client)

	result, err := c.Classify(context.Background(), model.Product{RawName: "PARAFUSO"})
	require.NoError(t, err)
	assert.Equal(t, "S39", result.CategoryCode)
	assert.Equal(t, 3, client.callCount())
}

func TestClassifierGivesUpAfterMaxAttempts(t *testing.T) {
	transient := &common.RetryableError{Err: errors.New("overloaded"), Retryable: true}
	client := &scriptedClient{
		responses: []ClassificationResponse{{}},
		errs:      []error{transient},
	}
	c := testClassifier(t, client)

	_, err := c.Classify(context.Background(), model.Product{RawName: "PARAFUSO"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrClassificationFailed)
	assert.Equal(t, 3, client.callCount())
}

func TestClassifierRetriesMalformedAnswers(t *testing.T) {
	_, malformed := parseClassification("I think this is a bolt.")
	require.Error(t, malformed)

	client := &scriptedClient{
		responses: []ClassificationResponse{{}, {}, validResponse()},
		errs:      []error{malformed, malformed, nil},
	}
	c := testClassifier(t, client)

	result, err := c.Classify(context.Background(), model.Product{RawName: "PARAFUSO"})
	require.NoError(t, err)
	assert.Equal(t, "S39", result.CategoryCode)
	assert.Equal(t, 3, client.callCount(), "a bad answer gets another attempt")
}

func TestClassifierRetriesUnknownTaxonomyCodes(t *testing.T) {
	bogus := validResponse()
	bogus.CategoryCode = "S99"

	t.Run("recovers on a later attempt", func(t *testing.T) {
		client := &scriptedClient{
			responses: []ClassificationResponse{bogus, validResponse()},
			errs:      []error{nil, nil},
		}
		c := testClassifier(t, client)

		result, err := c.Classify(context.Background(), model.Product{RawName: "PARAFUSO"})
		require.NoError(t, err)
		assert.Equal(t, "S39", result.CategoryCode)
		assert.Equal(t, 2, client.callCount())
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		client := &scriptedClient{
			responses: []ClassificationResponse{bogus},
			errs:      []error{nil},
		}
		c := testClassifier(t, client)

		_, err := c.Classify(context.Background(), model.Product{RawName: "ARRUELA"})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrClassificationFailed)
		assert.Equal(t, 3, client.callCount())
	})
}
