package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "D03", tax.Department)
	assert.Len(t, tax.Categories, 16)

	tools, ok := tax.Category("S41")
	require.True(t, ok)
	assert.Equal(t, "FERRAMENTAS", tools.Name)
	assert.NotEmpty(t, tools.Subcategories)
}

func TestValid(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name        string
		category    string
		subcategory string
		want        bool
	}{
		{name: "valid pair", category: "S39", subcategory: "C308", want: true},
		{name: "category only", category: "S41", subcategory: "", want: true},
		{name: "unknown category", category: "S99", subcategory: "", want: false},
		{name: "subcategory from other category", category: "S41", subcategory: "C308", want: false},
		{name: "unknown subcategory", category: "S39", subcategory: "C999", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.Valid(tt.category, tt.subcategory))
		})
	}
}

func TestPromptContext(t *testing.T) {
	tax, err := Default()
	require.NoError(t, err)

	prompt := tax.PromptContext()

	assert.Contains(t, prompt, "S41: FERRAMENTAS")
	assert.Contains(t, prompt, "C308: Parafusos, pregos, porcas, buchas e arruelas")

	// Deterministic output: categories in code order.
	assert.Equal(t, prompt, tax.PromptContext())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tax.yaml")

	content := `department: "D03"
categories:
  - code: "S41"
    name: "FERRAMENTAS"
    subcategories:
      - code: "C740"
        name: "Alicates"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tax, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, tax.Valid("S41", "C740"))
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile("/nonexistent/tax.yaml")
		assert.Error(t, err)
	})

	t.Run("empty tree", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("department: D03\n"), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("duplicate category code", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dup.yaml")
		content := `categories:
  - code: "S41"
    name: "FERRAMENTAS"
  - code: "S41"
    name: "REPETIDA"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}
