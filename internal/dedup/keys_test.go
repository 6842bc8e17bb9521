package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmoraes/peneira/internal/model"
)

func TestGenerateProducesAllKeyTypes(t *testing.T) {
	g := NewKeyGenerator()

	keys := g.Generate("parafuso sextavado 12.7 mm inox")

	require.Len(t, keys, len(model.KeyTypes))
	for _, keyType := range model.KeyTypes {
		_, ok := keys[keyType]
		assert.True(t, ok, "missing %s key", keyType)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g := NewKeyGenerator()

	first := g.Generate("chave allen 6 mm aco")
	second := g.Generate("chave allen 6 mm aco")

	assert.Equal(t, first, second)
}

func TestGenerateDegenerateInput(t *testing.T) {
	g := NewKeyGenerator()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "punctuation only", input: "---"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := g.Generate(tt.input)
			require.Len(t, keys, len(model.KeyTypes))
			// Dim always falls back to a content hash, never empty.
			assert.NotEmpty(t, keys[model.KeyDim])
		})
	}
}

func TestAlphaKey(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Generate("parafuso sextavado 12.7 mm inox")
	b := g.Generate("parafuso sextavado 12.7mm inox")

	// Spacing and punctuation differences collapse in the alpha key.
	assert.Equal(t, a[model.KeyAlpha], b[model.KeyAlpha])
	assert.Equal(t, "parafusosextavado127mminox", a[model.KeyAlpha])
	assert.NotEqual(t, a[model.KeyExact], b[model.KeyExact])
}

func TestSortedKeyWordOrderInvariant(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Generate("inox parafuso sextavado")
	b := g.Generate("parafuso sextavado inox")

	assert.Equal(t, a[model.KeySorted], b[model.KeySorted])
	assert.Equal(t, "inox_parafuso_sextavado", a[model.KeySorted])
}

func TestCoreKey(t *testing.T) {
	g := NewKeyGenerator()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "extracts sorted deduplicated terms",
			input: "parafuso sextavado especial parafuso inox",
			want:  "inox_parafuso_sextavado",
		},
		{
			name:  "no core terms",
			input: "coisa generica qualquer",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := g.Generate(tt.input)
			assert.Equal(t, tt.want, keys[model.KeyCore])
		})
	}
}

func TestDimKey(t *testing.T) {
	g := NewKeyGenerator()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "millimeter value",
			input: "parafuso 12.7 mm",
			want:  "12.7",
		},
		{
			name:  "comma decimal",
			input: "broca 6,35 mm",
			want:  "6.35",
		},
		{
			name:  "inch to millimeters",
			input: "tubo 2 pol",
			want:  "50.8",
		},
		{
			name:  "thread size",
			input: "parafuso sextavado m8",
			want:  "m8",
		},
		{
			name:  "fraction to decimal",
			input: "chave 3/8 biela",
			want:  "0.38",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := g.Generate(tt.input)
			assert.Equal(t, tt.want, keys[model.KeyDim])
		})
	}
}

func TestDimKeyFallbackHash(t *testing.T) {
	g := NewKeyGenerator()

	a := g.Generate("alicate universal")
	b := g.Generate("alicate bico fino")

	assert.Len(t, a[model.KeyDim], 10)
	assert.Len(t, b[model.KeyDim], 10)
	assert.NotEqual(t, a[model.KeyDim], b[model.KeyDim])
}

func TestPhonKey(t *testing.T) {
	g := NewKeyGenerator()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "first three runes of long words",
			input: "parafuso sextavado inox",
			want:  "parsexino",
		},
		{
			name:  "short words skipped",
			input: "oleo de motor sae 40",
			want:  "olemotsae",
		},
		{
			name:  "caps at four words",
			input: "chave combinada aberta estrela longa",
			want:  "chacomabeest",
		},
		{
			name:  "resists trailing typos",
			input: "parafuso sextavadoo inoxx",
			want:  "parsexino",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := g.Generate(tt.input)
			assert.Equal(t, tt.want, keys[model.KeyPhon])
		})
	}
}
