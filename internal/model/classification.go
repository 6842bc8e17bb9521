package model

import "time"

// ClassificationResult is what the external classifier returns for a
// single product name.
type ClassificationResult struct {
	NormalizedName  string
	CategoryCode    string
	CategoryName    string
	SubcategoryCode string
	SubcategoryName string
	Reasoning       string
	Confidence      float64
}

// NeedsReviewThreshold flags classifications that should be inspected
// by hand before being trusted.
const NeedsReviewThreshold = 0.8

// BatchStats aggregates counters for one orchestration batch.
type BatchStats struct {
	StartedAt      time.Time
	BatchID        string
	BatchNumber    int
	TotalProcessed int
	Succeeded      int
	Failed         int
	NewMasters     int
	Duplicates     int
	LowConfidence  int
	ConfidenceSum  float64
	Elapsed        time.Duration
}

// RunStats aggregates counters across an entire classification run.
type RunStats struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	TotalProcessed int
	Succeeded      int
	Failed         int
	NewMasters     int
	Duplicates     int
	LowConfidence  int
	Batches        int
	ConfidenceSum  float64
}

// MeanConfidence returns the mean classifier confidence over the
// successfully processed products, or 0 when none succeeded.
func (s RunStats) MeanConfidence() float64 {
	if s.Succeeded == 0 {
		return 0
	}
	return s.ConfidenceSum / float64(s.Succeeded)
}

// Elapsed returns total wall-clock duration of the run.
func (s RunStats) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
