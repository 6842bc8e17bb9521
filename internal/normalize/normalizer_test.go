package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "lowercases",
			input: "PARAFUSO INOX",
			want:  "parafuso inox",
		},
		{
			name:  "strips diacritics",
			input: "VÁLVULA DE PRESSÃO",
			want:  "valvula de pressao",
		},
		{
			name:  "collapses whitespace",
			input: "  parafuso   sextavado \t inox ",
			want:  "parafuso sextavado inox",
		},
		{
			name:  "expands sext abbreviation",
			input: "PARAFUSO SEXT. M8",
			want:  "parafuso sextavado m8",
		},
		{
			name:  "expands chav abbreviation",
			input: "CHAV. FENDA",
			want:  "chave fenda",
		},
		{
			name:  "half inch fraction to millimeters",
			input: `PARAFUSO 1/2"`,
			want:  "parafuso 12.7mm",
		},
		{
			name:  "quarter inch fraction",
			input: "BROCA 1/4 POL",
			want:  "broca 6.35 mm",
		},
		{
			name:  "polegada alias",
			input: "TUBO 3 POLEGADA",
			want:  "tubo 3 mm",
		},
		{
			name:  "p/ expansion",
			input: "FILTRO P/CAMINHAO",
			want:  "filtro para caminhao",
		},
		{
			name:  "sextavado untouched",
			input: "parafuso sextavado",
			want:  "parafuso sextavado",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"PARAFUSO SEXT 1/2 POL INOX",
		`Parafuso Sext. 1/2" INOX`,
		"CHAV. ALLEN 5/8",
		"VÁLVULA P/ÁGUA 3/4 POLEGADA",
		"sextavado",
		"already normalized text",
		"m8 x 12.7mm",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := Normalize(input)
			twice := Normalize(once)
			assert.Equal(t, once, twice, "Normalize must be idempotent")
		})
	}
}

func TestNormalizeConvergence(t *testing.T) {
	// Differently abbreviated renditions of the same product converge.
	a := Normalize("PARAFUSO SEXT 1/2 POL INOX")
	b := Normalize(`Parafuso Sext. 1/2" INOX`)

	assert.Equal(t, "parafuso sextavado 12.7 mm inox", a)
	assert.Equal(t, "parafuso sextavado 12.7mm inox", b)
}

func TestNormalizerAdapter(t *testing.T) {
	n := NewNormalizer()
	assert.Equal(t, Normalize("PARAFUSO SEXT."), n.Normalize("PARAFUSO SEXT."))
}
