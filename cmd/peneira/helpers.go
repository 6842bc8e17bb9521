package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/gmoraes/peneira/internal/config"
	"github.com/gmoraes/peneira/internal/llm"
	"github.com/gmoraes/peneira/internal/service"
	"github.com/gmoraes/peneira/internal/storage"
	"github.com/gmoraes/peneira/internal/taxonomy"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/peneira/peneira.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadTaxonomy returns the configured taxonomy, falling back to the
// embedded tree.
func loadTaxonomy() (*taxonomy.Taxonomy, error) {
	if path := viper.GetString("taxonomy.path"); path != "" {
		return taxonomy.LoadFile(config.ExpandPath(path))
	}
	return taxonomy.Default()
}

// initClassifier builds the LLM classifier from configuration.
// Non-empty provider and model override the config file.
func initClassifier(tax *taxonomy.Taxonomy, provider, model string) (*llm.Classifier, error) {
	cfg := llm.Config{
		Provider:          viper.GetString("llm.provider"),
		APIKey:            viper.GetString("llm.api_key"),
		Model:             viper.GetString("llm.model"),
		Temperature:       viper.GetFloat64("llm.temperature"),
		MaxTokens:         viper.GetInt("llm.max_tokens"),
		CacheTTL:          viper.GetDuration("llm.cache_ttl"),
		RequestsPerMinute: viper.GetInt("llm.requests_per_minute"),
	}
	if provider != "" {
		cfg.Provider = provider
	}
	if model != "" {
		cfg.Model = model
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	classifier := llm.NewClassifier(client, tax, cfg)

	if viper.IsSet("llm.max_retries") {
		classifier.WithRetryOptions(service.RetryOptions{
			MaxAttempts:  viper.GetInt("llm.max_retries"),
			InitialDelay: viper.GetDuration("llm.retry_initial_delay"),
			MaxDelay:     viper.GetDuration("llm.retry_max_delay"),
		})
	}

	return classifier, nil
}

// durationFlag reads a duration config value with a default.
func durationFlag(key string, fallback time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return fallback
}
