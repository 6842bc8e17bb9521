package model

// StatusCounts holds per-status product counts plus the mean classifier
// confidence over completed products.
type StatusCounts struct {
	Total          int
	Pending        int
	Completed      int
	Errors         int
	MeanConfidence float64
}

// GroupSummary aggregates duplicate-group statistics for reporting.
type GroupSummary struct {
	TotalGroups     int
	GroupsWithDupes int
	MaxGroupSize    int
	AvgGroupSize    float64
}

// CategoryCount is one row of a category distribution report.
type CategoryCount struct {
	CategoryName   string
	Count          int
	MeanConfidence float64
}
