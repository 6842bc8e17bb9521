package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Classify(ctx context.Context, prompt string) (ClassificationResponse, error)
}

// ClassificationResponse is the provider-level classification result
// before validation against the taxonomy.
type ClassificationResponse struct {
	NormalizedName  string
	CategoryCode    string
	CategoryName    string
	SubcategoryCode string
	SubcategoryName string
	Reasoning       string
	Confidence      float64
}

// Config holds configuration for LLM clients.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	CacheTTL          time.Duration
	RequestsPerMinute int
}
