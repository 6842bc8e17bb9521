// Package dedup implements the multi-key fuzzy duplicate detection
// engine: weighted hash key generation and match resolution against the
// persistent duplicate dictionary.
package dedup

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gmoraes/peneira/internal/model"
)

const inchToMM = 25.4

// coreVocabulary matches domain-significant terms: product types, drive
// types, materials, and unit tokens.
var coreVocabulary = regexp.MustCompile(`\b(parafuso|porca|arruela|chave|ferramenta|oleo|graxa|filtro|valvula|bomba|motor|` +
	`sextavado|allen|phillips|fenda|torx|` +
	`aco|inox|ferro|aluminio|plastico|borracha|` +
	`mm|cm|m|pol|polegada|litro|kg|g)\b`)

// Dimension token patterns, applied in order.
var (
	unitDimPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(mm|cm|pol|")`)
	pairDimPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*x\s*(\d+(?:[.,]\d+)?)`)
	threadDimPattern = regexp.MustCompile(`\bm(\d+)\b`)
	fracDimPattern   = regexp.MustCompile(`\b(\d+)/(\d+)\b`)
)

// KeyGenerator derives the six weighted matching keys from a normalized
// product name. Generation is pure and deterministic; every key type is
// always present, falling back to placeholder values for degenerate
// input so the key set stays total.
type KeyGenerator struct{}

// NewKeyGenerator creates a key generator.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{}
}

// Generate computes all six keys for a normalized name.
func (g *KeyGenerator) Generate(normalized string) model.KeySet {
	normalized = strings.TrimSpace(normalized)
	words := strings.Fields(normalized)

	keys := model.KeySet{
		model.KeyExact:  normalized,
		model.KeyAlpha:  alphaKey(normalized),
		model.KeySorted: sortedKey(words),
		model.KeyCore:   coreKey(normalized),
		model.KeyDim:    dimKey(normalized),
		model.KeyPhon:   phonKey(normalized, words),
	}

	return keys
}

// alphaKey keeps only [a-z0-9], dropping spaces and punctuation.
func alphaKey(normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sortedKey joins the lexicographically sorted words, making the key
// invariant under word order.
func sortedKey(words []string) string {
	sorted := make([]string, len(words))
	copy(sorted, words)
	sort.Strings(sorted)
	return strings.Join(sorted, "_")
}

// coreKey extracts domain-significant terms, deduplicated and sorted.
func coreKey(normalized string) string {
	matches := coreVocabulary.FindAllString(normalized, -1)
	seen := make(map[string]struct{}, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		terms = append(terms, m)
	}
	sort.Strings(terms)
	return strings.Join(terms, "_")
}

// dimKey extracts numeric dimension tokens normalized to millimeters.
// When the name carries no dimension at all, a fixed-length content hash
// of the normalized string keeps the key present and unique enough.
func dimKey(normalized string) string {
	var dims []string

	for _, m := range unitDimPattern.FindAllStringSubmatch(normalized, -1) {
		dims = append(dims, normalizeDim(m[1], m[2]))
	}
	for _, m := range pairDimPattern.FindAllStringSubmatch(normalized, -1) {
		dims = append(dims, normalizeDim(m[1], ""), normalizeDim(m[2], ""))
	}
	for _, m := range threadDimPattern.FindAllStringSubmatch(normalized, -1) {
		dims = append(dims, "m"+m[1])
	}
	for _, m := range fracDimPattern.FindAllStringSubmatch(normalized, -1) {
		num, err1 := strconv.ParseFloat(m[1], 64)
		den, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || den == 0 {
			dims = append(dims, m[0])
			continue
		}
		dims = append(dims, strconv.FormatFloat(num/den, 'f', 2, 64))
	}

	if len(dims) == 0 {
		return contentHash(normalized)
	}
	return strings.Join(dims, "_")
}

// normalizeDim converts a single captured value to millimeters: commas
// become decimal points, inch units multiply by 25.4.
func normalizeDim(value, unit string) string {
	value = strings.ReplaceAll(value, ",", ".")
	switch unit {
	case "pol", `"`:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return value
		}
		return strconv.FormatFloat(v*inchToMM, 'f', 1, 64)
	default:
		return value
	}
}

// phonKey concatenates the first three characters of up to four words
// longer than two characters, resisting trailing typos. Falls back to a
// plain prefix when no such words exist.
func phonKey(normalized string, words []string) string {
	var b strings.Builder
	count := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) <= 2 {
			continue
		}
		b.WriteString(string(r[:3]))
		count++
		if count == 4 {
			break
		}
	}
	if b.Len() > 0 {
		return b.String()
	}

	runes := []rune(normalized)
	if len(runes) > 10 {
		runes = runes[:10]
	}
	return string(runes)
}

// contentHash returns a fixed-length hash of the normalized string.
func contentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:10]
}
