// Package normalize canonicalizes raw product names into a stable
// comparison form used for key generation and duplicate detection.
//
// Pipeline order:
//  1. Lowercase
//  2. NFD decomposition, drop combining marks (diacritics)
//  3. Ordered domain replacement table (fractions, unit aliases,
//     abbreviation expansions)
//  4. Collapse repeated whitespace and trim
//
// Normalize is total over all input strings, including empty, and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
package normalize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh transformer chains; transform.Chain values are stateful.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			norm.NFC,
		)
	},
}

// replacement is one ordered rewrite rule. Exactly one of pattern or
// literal is set. Abbreviation rules use word-boundary patterns instead
// of plain substring replacement: expanding "sext" inside an already
// expanded "sextavado" would break idempotence.
type replacement struct {
	pattern *regexp.Regexp
	literal string
	with    string
}

var replacements = []replacement{
	// Inch fractions to their decimal millimeter values.
	{literal: "1/2", with: "12.7"},
	{literal: "1/4", with: "6.35"},
	{literal: "3/4", with: "19.05"},
	{literal: "3/8", with: "9.525"},
	{literal: "5/8", with: "15.875"},

	// Unit aliases.
	{pattern: regexp.MustCompile(`\bpolegada\b`), with: "mm"},
	{pattern: regexp.MustCompile(`\bpol\b`), with: "mm"},
	{literal: `"`, with: "mm"},

	// Abbreviation expansions.
	{pattern: regexp.MustCompile(`\bsext\b\.?`), with: "sextavado"},
	{pattern: regexp.MustCompile(`\bchav\b\.?`), with: "chave"},
	{literal: "p/", with: "para "},
}

// Normalize returns the canonical comparison form of a raw product name.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	s = stripDiacritics(s)

	for _, r := range replacements {
		if r.pattern != nil {
			s = r.pattern.ReplaceAllString(s, r.with)
		} else {
			s = strings.ReplaceAll(s, r.literal, r.with)
		}
	}

	return strings.Join(strings.Fields(s), " ")
}

// Normalizer is the injectable form of Normalize for components that
// take their dependencies as interfaces.
type Normalizer struct{}

// NewNormalizer returns a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the canonical comparison form of a raw product name.
func (*Normalizer) Normalize(raw string) string {
	return Normalize(raw)
}

func stripDiacritics(s string) string {
	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// Transform failure leaves the input usable as-is; normalization
		// must stay total.
		return s
	}
	return ns
}
