package dedup

import (
	"context"
	"fmt"

	"github.com/gmoraes/peneira/internal/model"
)

// Dictionary is the read/allocate surface of the duplicate dictionary
// that resolution needs. Resolution itself never writes key bindings;
// registering a new master's keys is the orchestrator's job.
type Dictionary interface {
	LookupKey(ctx context.Context, keyType model.KeyType, hashKey string) (*model.HashKeyEntry, error)
	NextGroupID(ctx context.Context) (int64, error)
}

// Resolver decides whether a product joins an existing duplicate group
// or starts a new one.
type Resolver struct {
	dict Dictionary
	keys *KeyGenerator
}

// NewResolver creates a match resolver backed by the given dictionary.
func NewResolver(dict Dictionary) *Resolver {
	return &Resolver{
		dict: dict,
		keys: NewKeyGenerator(),
	}
}

// Resolve computes the six keys for a normalized name and resolves them
// against the dictionary. The single highest-weight hit wins; hits for
// other groups at lower weight are discarded, not voted. A best weight
// at or above the duplicate threshold joins that group; anything below
// it allocates a fresh group and marks the product as its master.
func (r *Resolver) Resolve(ctx context.Context, normalized string) (model.MatchResult, model.KeySet, error) {
	keys := r.keys.Generate(normalized)

	var (
		matched    []model.KeyMatch
		bestWeight float64
		bestGroup  int64
		found      bool
	)

	for _, keyType := range model.KeyTypes {
		entry, err := r.dict.LookupKey(ctx, keyType, keys[keyType])
		if err != nil {
			return model.MatchResult{}, keys, fmt.Errorf("dictionary lookup for %s key failed: %w", keyType, err)
		}
		if entry == nil {
			continue
		}

		weight := model.KeyWeights[keyType]
		matched = append(matched, model.KeyMatch{
			KeyType: keyType,
			HashKey: keys[keyType],
			GroupID: entry.DuplicateGroupID,
			Weight:  weight,
		})

		if !found || weight > bestWeight {
			found = true
			bestWeight = weight
			bestGroup = entry.DuplicateGroupID
		}
	}

	if found && bestWeight >= model.DuplicateThreshold {
		return model.MatchResult{
			GroupID:     bestGroup,
			Confidence:  bestWeight,
			IsMaster:    false,
			MatchedKeys: matched,
		}, keys, nil
	}

	groupID, err := r.dict.NextGroupID(ctx)
	if err != nil {
		return model.MatchResult{}, keys, fmt.Errorf("failed to allocate duplicate group: %w", err)
	}

	return model.MatchResult{
		GroupID:     groupID,
		Confidence:  1.0,
		IsMaster:    true,
		MatchedKeys: matched,
	}, keys, nil
}
