// Package taxonomy holds the category tree that classifications are
// constrained to. The tree ships embedded as a YAML document and can be
// replaced with a custom file at startup.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Subcategory is a leaf of the category tree.
type Subcategory struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Category is one top-level branch of the tree.
type Category struct {
	Code          string        `yaml:"code"`
	Name          string        `yaml:"name"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

// Taxonomy is the full category tree used to constrain classifications.
type Taxonomy struct {
	Department string     `yaml:"department"`
	Categories []Category `yaml:"categories"`

	byCode map[string]Category
}

// Default returns the embedded taxonomy.
func Default() (*Taxonomy, error) {
	return parse(defaultTaxonomy)
}

// LoadFile reads a taxonomy from a YAML file.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if len(t.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	t.byCode = make(map[string]Category, len(t.Categories))
	for _, c := range t.Categories {
		if c.Code == "" || c.Name == "" {
			return nil, fmt.Errorf("taxonomy category missing code or name")
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate category code %s", c.Code)
		}
		t.byCode[c.Code] = c
	}
	return &t, nil
}

// Category returns the category with the given code, if present.
func (t *Taxonomy) Category(code string) (Category, bool) {
	c, ok := t.byCode[code]
	return c, ok
}

// Valid reports whether a category/subcategory code pair exists in the
// tree. An empty subcategory code is accepted for categories classified
// at the top level only.
func (t *Taxonomy) Valid(categoryCode, subcategoryCode string) bool {
	c, ok := t.byCode[categoryCode]
	if !ok {
		return false
	}
	if subcategoryCode == "" {
		return true
	}
	for _, s := range c.Subcategories {
		if s.Code == subcategoryCode {
			return true
		}
	}
	return false
}

// PromptContext renders the tree as a compact text block for inclusion
// in classifier prompts, categories in code order.
func (t *Taxonomy) PromptContext() string {
	codes := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b strings.Builder
	for _, code := range codes {
		c := t.byCode[code]
		fmt.Fprintf(&b, "%s: %s\n", c.Code, c.Name)
		for _, s := range c.Subcategories {
			fmt.Fprintf(&b, "  %s: %s\n", s.Code, s.Name)
		}
	}
	return b.String()
}
