package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmoraes/peneira/internal/model"
)

// memDictionary is an in-memory Dictionary for resolver tests.
type memDictionary struct {
	entries map[model.KeyType]map[string]*model.HashKeyEntry
	nextID  int64
	allocs  int
}

func newMemDictionary() *memDictionary {
	return &memDictionary{
		entries: make(map[model.KeyType]map[string]*model.HashKeyEntry),
	}
}

func (d *memDictionary) register(keyType model.KeyType, hashKey string, groupID int64) {
	if d.entries[keyType] == nil {
		d.entries[keyType] = make(map[string]*model.HashKeyEntry)
	}
	d.entries[keyType][hashKey] = &model.HashKeyEntry{
		KeyType:          keyType,
		HashKey:          hashKey,
		DuplicateGroupID: groupID,
		ConfidenceWeight: model.KeyWeights[keyType],
	}
}

func (d *memDictionary) LookupKey(_ context.Context, keyType model.KeyType, hashKey string) (*model.HashKeyEntry, error) {
	return d.entries[keyType][hashKey], nil
}

func (d *memDictionary) NextGroupID(_ context.Context) (int64, error) {
	d.nextID++
	d.allocs++
	return d.nextID, nil
}

func TestResolveNewMaster(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	match, keys, err := r.Resolve(context.Background(), "parafuso sextavado 12.7 mm inox")
	require.NoError(t, err)

	assert.True(t, match.IsMaster)
	assert.Equal(t, int64(1), match.GroupID)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
	assert.Empty(t, match.MatchedKeys)
	assert.Len(t, keys, len(model.KeyTypes))
	assert.Equal(t, 1, dict.allocs)
}

func TestResolveExactMatchJoinsGroup(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	name := "parafuso sextavado 12.7 mm inox"
	keys := NewKeyGenerator().Generate(name)
	dict.register(model.KeyExact, keys[model.KeyExact], 7)

	match, _, err := r.Resolve(context.Background(), name)
	require.NoError(t, err)

	assert.False(t, match.IsMaster)
	assert.Equal(t, int64(7), match.GroupID)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
	assert.Equal(t, 0, dict.allocs, "joining a group must not allocate")
}

func TestResolveThresholdIsInclusive(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	// A core-only hit carries weight 0.85, exactly at the threshold.
	name := "parafuso generico especial"
	keys := NewKeyGenerator().Generate(name)
	dict.register(model.KeyCore, keys[model.KeyCore], 3)

	match, _, err := r.Resolve(context.Background(), name)
	require.NoError(t, err)

	assert.False(t, match.IsMaster)
	assert.Equal(t, int64(3), match.GroupID)
	assert.InDelta(t, model.DuplicateThreshold, match.Confidence, 1e-9)
}

func TestResolveBelowThresholdStartsNewGroup(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	// A phon-only hit (0.75) is below the threshold: the hit is recorded
	// but the product still founds its own group.
	name := "parafuso especial longo"
	keys := NewKeyGenerator().Generate(name)
	dict.register(model.KeyPhon, keys[model.KeyPhon], 5)

	match, _, err := r.Resolve(context.Background(), name)
	require.NoError(t, err)

	assert.True(t, match.IsMaster)
	assert.NotEqual(t, int64(5), match.GroupID)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
	require.Len(t, match.MatchedKeys, 1)
	assert.Equal(t, model.KeyPhon, match.MatchedKeys[0].KeyType)
	assert.Equal(t, 1, dict.allocs)
}

func TestResolveHighestWeightWins(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	// Conflicting hits: alpha points at group 2, sorted at group 9.
	// The single strongest key decides; weaker hits are discarded.
	name := "chave allen 6 mm aco"
	keys := NewKeyGenerator().Generate(name)
	dict.register(model.KeyAlpha, keys[model.KeyAlpha], 2)
	dict.register(model.KeySorted, keys[model.KeySorted], 9)

	match, _, err := r.Resolve(context.Background(), name)
	require.NoError(t, err)

	assert.False(t, match.IsMaster)
	assert.Equal(t, int64(2), match.GroupID)
	assert.InDelta(t, model.KeyWeights[model.KeyAlpha], match.Confidence, 1e-9)
	assert.Len(t, match.MatchedKeys, 2)
}

func TestResolveDeterministic(t *testing.T) {
	dict := newMemDictionary()
	r := NewResolver(dict)

	name := "rolamento 6205 zz"
	keys := NewKeyGenerator().Generate(name)
	dict.register(model.KeyExact, keys[model.KeyExact], 4)

	for i := 0; i < 5; i++ {
		match, _, err := r.Resolve(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, int64(4), match.GroupID)
		assert.False(t, match.IsMaster)
	}
}
