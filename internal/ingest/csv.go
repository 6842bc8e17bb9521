// Package ingest loads product catalogs from CSV exports into storage.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/service"
)

// Expected CSV column headers. Matching is case-insensitive.
const (
	colProduct  = "produto"
	colBrand    = "marca"
	colModel    = "modelo"
	colCategory = "categoria"
)

// categorySeparator splits a legacy category path like
// "MRO: MATERIAL, REPARO E OPERAÇÃO > FERRAMENTAS > Alicates".
const categorySeparator = " > "

// Importer reads product CSV exports and saves them as pending products.
type Importer struct {
	storage service.Storage
}

// NewImporter creates an importer backed by the given storage.
func NewImporter(storage service.Storage) *Importer {
	return &Importer{storage: storage}
}

// ImportFile imports a product catalog CSV from disk. Rows without a
// product name are skipped, not failed.
func (i *Importer) ImportFile(ctx context.Context, path string) (service.ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return service.ImportSummary{}, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	summary, err := i.Import(ctx, f)
	summary.Source = path
	return summary, err
}

// Import reads CSV rows from r and saves them as pending products.
func (i *Importer) Import(ctx context.Context, r io.Reader) (service.ImportSummary, error) {
	start := time.Now()
	summary := service.ImportSummary{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return summary, err
	}

	var products []model.Product
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("failed to read CSV row %d: %w", summary.Read+2, err)
		}
		summary.Read++

		p := parseRow(record, columns)
		if p.RawName == "" {
			summary.Skipped++
			continue
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		summary.Elapsed = time.Since(start)
		slog.Info("No importable products found", "read", summary.Read, "skipped", summary.Skipped)
		return summary, nil
	}

	saved, err := i.storage.SaveProducts(ctx, products)
	if err != nil {
		return summary, fmt.Errorf("failed to save imported products: %w", err)
	}

	summary.Imported = saved
	summary.Elapsed = time.Since(start)

	slog.Info("Catalog import complete",
		"read", summary.Read,
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"elapsed", summary.Elapsed)

	return summary, nil
}

// columnMap holds the index of each known column, -1 when absent.
type columnMap struct {
	product  int
	brand    int
	model    int
	category int
}

func mapColumns(header []string) (columnMap, error) {
	columns := columnMap{product: -1, brand: -1, model: -1, category: -1}

	for idx, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colProduct:
			columns.product = idx
		case colBrand:
			columns.brand = idx
		case colModel:
			columns.model = idx
		case colCategory:
			columns.category = idx
		}
	}

	if columns.product == -1 {
		return columns, fmt.Errorf("CSV is missing the %q column", "Produto")
	}
	return columns, nil
}

func parseRow(record []string, columns columnMap) model.Product {
	p := model.Product{
		RawName:          field(record, columns.product),
		Brand:            field(record, columns.brand),
		Model:            field(record, columns.model),
		OriginalCategory: field(record, columns.category),
		Status:           model.StatusPending,
	}

	if p.OriginalCategory != "" {
		parts := strings.Split(p.OriginalCategory, categorySeparator)
		if len(parts) > 0 {
			p.OldDepartment = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 {
			p.OldCategory = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			p.OldSubcategory = strings.TrimSpace(parts[2])
		}
	}

	return p
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
