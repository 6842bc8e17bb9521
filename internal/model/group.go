package model

import "time"

// DuplicateGroup is the set of products considered the same underlying
// item, anchored by the first product to establish it (the master).
// Group identifiers are allocated atomically and never reused.
type DuplicateGroup struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	MasterName      string
	ID              int64
	MasterProductID int64
	ProductCount    int
}
