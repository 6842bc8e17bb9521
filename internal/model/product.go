// Package model defines the core domain models used throughout the application.
package model

import "time"

// ProductStatus tracks a product through the classification pipeline.
type ProductStatus string

// Product status constants.
const (
	StatusPending   ProductStatus = "PENDING"
	StatusCompleted ProductStatus = "COMPLETED"
	StatusError     ProductStatus = "ERROR"
)

// Product represents a single catalog entry from ingestion through
// classification and duplicate resolution.
type Product struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClassifiedAt     *time.Time
	DuplicateGroupID *int64

	RawName          string
	Brand            string
	Model            string
	OriginalCategory string
	// OriginalCategory split on " > " into up to three hierarchy levels.
	OldDepartment  string
	OldCategory    string
	OldSubcategory string

	NormalizedName  string
	CategoryCode    string
	CategoryName    string
	SubcategoryCode string
	SubcategoryName string
	Reasoning       string
	ErrorMessage    string
	BatchID         string

	ID              int64
	Confidence      float64
	SimilarityScore float64
	IsMaster        bool
	NeedsReview     bool
	Status          ProductStatus
}
