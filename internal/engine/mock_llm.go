package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/gmoraes/peneira/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface.
// It returns deterministic classifications based on the product name
// and can be told to fail specific products.
type MockClassifier struct {
	failures map[string]error
	results  map[string]model.ClassificationResult
	calls    []MockCall
	mu       sync.Mutex
}

// MockCall records details of a classification request.
type MockCall struct {
	Product model.Product
	Err     error
}

// NewMockClassifier creates a new mock classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		failures: make(map[string]error),
		results:  make(map[string]model.ClassificationResult),
		calls:    make([]MockCall, 0),
	}
}

// FailProduct makes every classification of the named product return err.
func (m *MockClassifier) FailProduct(rawName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[rawName] = err
}

// SetResult fixes the classification returned for the named product.
func (m *MockClassifier) SetResult(rawName string, result model.ClassificationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[rawName] = result
}

// Classify returns the configured result for the product, or a
// deterministic default derived from its name.
func (m *MockClassifier) Classify(_ context.Context, product model.Product) (model.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// An explicit result overrides an earlier failure injection.
	if result, ok := m.results[product.RawName]; ok {
		m.calls = append(m.calls, MockCall{Product: product})
		return result, nil
	}

	if err, ok := m.failures[product.RawName]; ok {
		m.calls = append(m.calls, MockCall{Product: product, Err: err})
		return model.ClassificationResult{}, err
	}

	nameLower := strings.ToLower(product.RawName)

	result := model.ClassificationResult{
		CategoryCode: "S43",
		CategoryName: "MATERIAIS DIVERSOS",
		Confidence:   0.60,
		Reasoning:    "default mock classification",
	}

	switch {
	case strings.Contains(nameLower, "parafuso") || strings.Contains(nameLower, "porca") || strings.Contains(nameLower, "arruela"):
		result = model.ClassificationResult{
			CategoryCode:    "S39",
			CategoryName:    "ELEMENTOS DE FIXAÇÃO E VEDAÇÃO",
			SubcategoryCode: "C308",
			SubcategoryName: "Parafusos, pregos, porcas, buchas e arruelas",
			Confidence:      0.95,
			Reasoning:       "fastener keyword",
		}
	case strings.Contains(nameLower, "chave") || strings.Contains(nameLower, "alicate"):
		result = model.ClassificationResult{
			CategoryCode:    "S41",
			CategoryName:    "FERRAMENTAS",
			SubcategoryCode: "C134",
			SubcategoryName: "Outras ferramentas manuais",
			Confidence:      0.90,
			Reasoning:       "hand tool keyword",
		}
	case strings.Contains(nameLower, "rolamento"):
		result = model.ClassificationResult{
			CategoryCode:    "S51",
			CategoryName:    "PARTES MECÂNICAS, ROLAMENTOS E CORREIAS",
			SubcategoryCode: "C315",
			SubcategoryName: "Rolamentos",
			Confidence:      0.92,
			Reasoning:       "bearing keyword",
		}
	case strings.Contains(nameLower, "lampada") || strings.Contains(nameLower, "lâmpada"):
		result = model.ClassificationResult{
			CategoryCode:    "S73",
			CategoryName:    "ILUMINAÇÃO",
			SubcategoryCode: "C760",
			SubcategoryName: "Lâmpadas de LED",
			Confidence:      0.70,
			Reasoning:       "lighting keyword",
		}
	}

	m.calls = append(m.calls, MockCall{Product: product})
	return result, nil
}

// Calls returns all recorded calls for verification in tests.
func (m *MockClassifier) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
