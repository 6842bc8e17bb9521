package engine

import (
	"context"

	"github.com/gmoraes/peneira/internal/model"
)

// Classifier is the engine's view of the external classification
// service: one product in, one taxonomy placement out.
type Classifier interface {
	Classify(ctx context.Context, product model.Product) (model.ClassificationResult, error)
}

// Resolver decides whether a normalized product name joins an existing
// duplicate group or founds a new one.
type Resolver interface {
	Resolve(ctx context.Context, normalized string) (model.MatchResult, model.KeySet, error)
}

// Normalizer produces the canonical form of a raw product name.
type Normalizer interface {
	Normalize(raw string) string
}
