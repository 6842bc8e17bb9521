// Package engine orchestrates the classification pipeline: it drains
// pending products in batches, classifies each one, resolves duplicates
// against the dictionary, and commits results product by product.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/service"
)

// Config holds configuration options for the classification engine.
type Config struct {
	BatchSize    int
	MaxBatches   int // 0 means run until the pending queue drains
	ProductDelay time.Duration
	BatchDelay   time.Duration
	ShowProgress bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		ProductDelay: 500 * time.Millisecond,
		BatchDelay:   2 * time.Second,
		ShowProgress: true,
	}
}

// sleepFunc pauses for d or until the context is canceled. Injected so
// tests can observe pacing without waiting for it.
type sleepFunc func(ctx context.Context, d time.Duration) error

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ClassificationEngine orchestrates the classification of products.
type ClassificationEngine struct {
	storage    service.Storage
	classifier Classifier
	resolver   Resolver
	normalizer Normalizer
	sleep      sleepFunc
	config     Config
}

// New creates a new classification engine with the given dependencies.
func New(storage service.Storage, classifier Classifier, resolver Resolver, normalizer Normalizer) *ClassificationEngine {
	return NewWithConfig(storage, classifier, resolver, normalizer, DefaultConfig())
}

// NewWithConfig creates a new classification engine with custom configuration.
func NewWithConfig(storage service.Storage, classifier Classifier, resolver Resolver, normalizer Normalizer, config Config) *ClassificationEngine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &ClassificationEngine{
		storage:    storage,
		classifier: classifier,
		resolver:   resolver,
		normalizer: normalizer,
		config:     config,
		sleep:      ctxSleep,
	}
}

// Config returns the engine's effective configuration.
func (e *ClassificationEngine) Config() Config {
	return e.config
}

// Run drains all pending products, batch by batch, until none remain or
// the context is canceled. Cancellation is honored between products and
// at batch boundaries: the product in flight always finishes and
// commits, while the rest of its batch is left pending for the next
// run rather than burned as failures.
func (e *ClassificationEngine) Run(ctx context.Context) (model.RunStats, error) {
	stats := model.RunStats{StartedAt: time.Now()}

	before, err := e.storage.CountsByStatus(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to count products: %w", err)
	}

	slog.Info("Starting classification run",
		"pending", before.Pending,
		"batch_size", e.config.BatchSize)

	for batchNumber := 1; ; batchNumber++ {
		select {
		case <-ctx.Done():
			stats.FinishedAt = time.Now()
			return stats, ctx.Err()
		default:
		}

		// A dead database makes every product in the batch fail the
		// same way; bail out instead of burning classifier calls.
		if err := e.storage.Ping(ctx); err != nil {
			stats.FinishedAt = time.Now()
			return stats, fmt.Errorf("aborting run: %w", err)
		}

		batch, err := e.storage.GetPendingProducts(ctx, e.config.BatchSize)
		if err != nil {
			stats.FinishedAt = time.Now()
			return stats, fmt.Errorf("failed to fetch pending products: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		batchStats := e.processBatch(ctx, batchNumber, batch)
		stats.Batches++
		stats.TotalProcessed += batchStats.TotalProcessed
		stats.Succeeded += batchStats.Succeeded
		stats.Failed += batchStats.Failed
		stats.NewMasters += batchStats.NewMasters
		stats.Duplicates += batchStats.Duplicates
		stats.LowConfidence += batchStats.LowConfidence
		stats.ConfidenceSum += batchStats.ConfidenceSum

		// A canceled run still records the partial batch it completed.
		if err := e.storage.SaveBatchStats(context.WithoutCancel(ctx), batchStats); err != nil {
			slog.Warn("Failed to save batch stats", "batch_id", batchStats.BatchID, "error", err)
		}

		slog.Info("Batch complete",
			"batch", batchNumber,
			"processed", batchStats.TotalProcessed,
			"succeeded", batchStats.Succeeded,
			"failed", batchStats.Failed,
			"new_masters", batchStats.NewMasters,
			"duplicates", batchStats.Duplicates)

		if e.config.MaxBatches > 0 && stats.Batches >= e.config.MaxBatches {
			slog.Info("Reached batch limit", "max_batches", e.config.MaxBatches)
			break
		}

		// A partial batch means the pending queue is drained; the
		// trailing delay would only make the user wait for nothing.
		if len(batch) == e.config.BatchSize {
			if err := e.sleep(ctx, e.config.BatchDelay); err != nil {
				stats.FinishedAt = time.Now()
				return stats, err
			}
		}
	}

	stats.FinishedAt = time.Now()

	after, err := e.storage.CountsByStatus(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to count products after run: %w", err)
	}

	slog.Info("Classification run finished",
		"batches", stats.Batches,
		"processed", stats.TotalProcessed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"completed_total", after.Completed,
		"errors_total", after.Errors,
		"elapsed", stats.Elapsed())

	return stats, nil
}

// Reprocess resets every Error product back to Pending and runs the
// engine over them.
func (e *ClassificationEngine) Reprocess(ctx context.Context) (model.RunStats, error) {
	reset, err := e.storage.ResetErrorProducts(ctx)
	if err != nil {
		return model.RunStats{}, fmt.Errorf("failed to reset error products: %w", err)
	}

	slog.Info("Reset error products for reprocessing", "count", reset)

	if reset == 0 {
		return model.RunStats{StartedAt: time.Now(), FinishedAt: time.Now()}, nil
	}

	return e.Run(ctx)
}

// processBatch runs a batch until it completes or the run is canceled.
// Failures are per-product: a product that errors is marked and
// skipped, never aborting the batch. On cancellation the product in
// flight commits through a detached context; untouched products stay
// pending.
func (e *ClassificationEngine) processBatch(ctx context.Context, batchNumber int, batch []model.Product) model.BatchStats {
	stats := model.BatchStats{
		BatchID:     uuid.New().String(),
		BatchNumber: batchNumber,
		StartedAt:   time.Now(),
	}

	var bar *progressbar.ProgressBar
	if e.config.ShowProgress {
		bar = progressbar.Default(int64(len(batch)), fmt.Sprintf("batch %d", batchNumber))
	}

	// Once a product has started, its storage writes must land even if
	// the operator cancels mid-product.
	commitCtx := context.WithoutCancel(ctx)

	for i, product := range batch {
		e.processProduct(commitCtx, product, stats.BatchID, &stats)
		stats.TotalProcessed++

		if bar != nil {
			_ = bar.Add(1)
		}

		if ctx.Err() != nil {
			slog.Info("Run canceled, leaving remaining batch products pending",
				"batch", batchNumber,
				"remaining", len(batch)-i-1)
			break
		}

		if i < len(batch)-1 {
			if err := e.sleep(ctx, e.config.ProductDelay); err != nil {
				break
			}
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	stats.Elapsed = time.Since(stats.StartedAt)
	return stats
}

// processProduct classifies one product and commits the outcome.
func (e *ClassificationEngine) processProduct(ctx context.Context, product model.Product, batchID string, stats *model.BatchStats) {
	result, err := e.classifier.Classify(ctx, product)
	if err != nil {
		slog.Error("Classification failed",
			"product_id", product.ID,
			"name", product.RawName,
			"error", err)
		e.markError(ctx, product.ID, err)
		stats.Failed++
		return
	}

	// Duplicate keys derive from our own normalizer over the raw name,
	// never from classifier output, so resolution stays deterministic.
	normalized := e.normalizer.Normalize(product.RawName)
	if result.NormalizedName == "" {
		result.NormalizedName = normalized
	}

	match, keys, err := e.resolver.Resolve(ctx, normalized)
	if err != nil {
		slog.Error("Duplicate resolution failed",
			"product_id", product.ID,
			"error", err)
		e.markError(ctx, product.ID, err)
		stats.Failed++
		return
	}

	if err := e.storage.SaveClassification(ctx, product.ID, result, match, batchID); err != nil {
		slog.Error("Failed to save classification",
			"product_id", product.ID,
			"error", err)
		e.markError(ctx, product.ID, err)
		stats.Failed++
		return
	}

	if err := e.recordMatch(ctx, product.ID, normalized, match, keys); err != nil {
		slog.Warn("Failed to record duplicate match",
			"product_id", product.ID,
			"group_id", match.GroupID,
			"error", err)
	}

	stats.Succeeded++
	stats.ConfidenceSum += result.Confidence
	if match.IsMaster {
		stats.NewMasters++
	} else {
		stats.Duplicates++
	}
	if result.Confidence < model.NeedsReviewThreshold {
		stats.LowConfidence++
	}
}

// recordMatch maintains the duplicate dictionary and group bookkeeping
// after a successful classification. Masters register all six of their
// keys; duplicates only bump hit counts on the keys that matched.
func (e *ClassificationEngine) recordMatch(ctx context.Context, productID int64, normalized string, match model.MatchResult, keys model.KeySet) error {
	if match.IsMaster {
		if err := e.storage.UpdateGroupMaster(ctx, match.GroupID, productID, normalized); err != nil {
			return err
		}
		for _, keyType := range model.KeyTypes {
			entry := model.HashKeyEntry{
				KeyType:          keyType,
				HashKey:          keys[keyType],
				DuplicateGroupID: match.GroupID,
				ConfidenceWeight: model.KeyWeights[keyType],
			}
			if err := e.storage.InsertOrBumpKey(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	}

	if err := e.storage.IncrementGroupCount(ctx, match.GroupID); err != nil {
		return err
	}
	for _, km := range match.MatchedKeys {
		entry := model.HashKeyEntry{
			KeyType:          km.KeyType,
			HashKey:          km.HashKey,
			DuplicateGroupID: km.GroupID,
			ConfidenceWeight: km.Weight,
		}
		if err := e.storage.InsertOrBumpKey(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (e *ClassificationEngine) markError(ctx context.Context, productID int64, cause error) {
	if err := e.storage.MarkProductError(ctx, productID, cause.Error()); err != nil {
		slog.Error("Failed to mark product as error",
			"product_id", productID,
			"error", err)
	}
}
