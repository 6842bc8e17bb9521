// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/gmoraes/peneira/internal/model"
)

// Storage defines the contract for the persistence layer. It is the only
// component allowed to write products, hash keys, or duplicate groups.
type Storage interface {
	// Product operations
	SaveProducts(ctx context.Context, products []model.Product) (int, error)
	GetPendingProducts(ctx context.Context, limit int) ([]model.Product, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	SaveClassification(ctx context.Context, productID int64, result model.ClassificationResult, match model.MatchResult, batchID string) error
	MarkProductError(ctx context.Context, productID int64, message string) error
	ResetErrorProducts(ctx context.Context) (int, error)
	CountsByStatus(ctx context.Context) (model.StatusCounts, error)

	// Duplicate dictionary operations
	LookupKey(ctx context.Context, keyType model.KeyType, hashKey string) (*model.HashKeyEntry, error)
	InsertOrBumpKey(ctx context.Context, entry model.HashKeyEntry) error
	NextGroupID(ctx context.Context) (int64, error)

	// Duplicate group operations
	GetGroup(ctx context.Context, groupID int64) (*model.DuplicateGroup, error)
	UpdateGroupMaster(ctx context.Context, groupID, masterProductID int64, masterName string) error
	IncrementGroupCount(ctx context.Context, groupID int64) error
	GroupSummary(ctx context.Context) (model.GroupSummary, error)

	// Statistics
	SaveBatchStats(ctx context.Context, stats model.BatchStats) error
	TopCategories(ctx context.Context, limit int) ([]model.CategoryCount, error)

	// Database management
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// ImportSummary reports the outcome of a catalog import.
type ImportSummary struct {
	Source   string
	Read     int
	Imported int
	Skipped  int
	Elapsed  time.Duration
}
