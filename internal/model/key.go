package model

// KeyType identifies one of the six hash key derivations used for
// duplicate detection. Each type carries a fixed confidence weight.
type KeyType string

// Key type constants, strongest match first.
const (
	KeyExact  KeyType = "exact"
	KeyAlpha  KeyType = "alpha"
	KeySorted KeyType = "sorted"
	KeyCore   KeyType = "core"
	KeyDim    KeyType = "dim"
	KeyPhon   KeyType = "phon"
)

// KeyWeights maps each key type to the trust level of a match on it.
var KeyWeights = map[KeyType]float64{
	KeyExact:  1.0,
	KeyAlpha:  0.95,
	KeySorted: 0.90,
	KeyCore:   0.85,
	KeyDim:    0.85,
	KeyPhon:   0.75,
}

// DuplicateThreshold is the minimum best-match weight required for a
// product to join an existing duplicate group. The boundary is inclusive.
const DuplicateThreshold = 0.85

// KeyTypes lists all key types in weight order.
var KeyTypes = []KeyType{KeyExact, KeyAlpha, KeySorted, KeyCore, KeyDim, KeyPhon}

// KeySet holds the six derived keys for one product.
type KeySet map[KeyType]string

// HashKeyEntry is one row of the duplicate dictionary: a key value bound
// to a duplicate group. The binding is immutable once written; repeat
// sightings only increment HitCount.
type HashKeyEntry struct {
	HashKey          string
	KeyType          KeyType
	DuplicateGroupID int64
	ConfidenceWeight float64
	HitCount         int
}

// KeyMatch records a dictionary hit for one key type during resolution.
type KeyMatch struct {
	HashKey string
	KeyType KeyType
	GroupID int64
	Weight  float64
}

// MatchResult is the outcome of resolving a product against the
// duplicate dictionary.
type MatchResult struct {
	MatchedKeys []KeyMatch
	GroupID     int64
	Confidence  float64
	IsMaster    bool
}
