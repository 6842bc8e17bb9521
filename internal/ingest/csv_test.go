package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmoraes/peneira/internal/ingest"
	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/testutil"
)

func TestImport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	importer := ingest.NewImporter(db.Storage)

	csv := `Produto,Marca,Modelo,Categoria
PARAFUSO SEXT 1/2 POL,Ciser,PS-12,MRO: MATERIAL REPARO E OPERACAO > ELEMENTOS DE FIXACAO > Parafusos
CHAVE ALLEN 6MM,Gedore,,
,,,
ROLAMENTO 6205,SKF,6205-ZZ,MRO: MATERIAL REPARO E OPERACAO > PARTES MECANICAS
`

	summary, err := importer.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Read)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 1, summary.Skipped, "blank product name row is skipped")

	pending, err := db.Storage.GetPendingProducts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	first := pending[0]
	assert.Equal(t, "PARAFUSO SEXT 1/2 POL", first.RawName)
	assert.Equal(t, "Ciser", first.Brand)
	assert.Equal(t, "PS-12", first.Model)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.Equal(t, "MRO: MATERIAL REPARO E OPERACAO", first.OldDepartment)
	assert.Equal(t, "ELEMENTOS DE FIXACAO", first.OldCategory)
	assert.Equal(t, "Parafusos", first.OldSubcategory)

	second := pending[1]
	assert.Equal(t, "CHAVE ALLEN 6MM", second.RawName)
	assert.Empty(t, second.OldDepartment)

	// Two-level path fills only department and category.
	third := pending[2]
	assert.Equal(t, "MRO: MATERIAL REPARO E OPERACAO", third.OldDepartment)
	assert.Equal(t, "PARTES MECANICAS", third.OldCategory)
	assert.Empty(t, third.OldSubcategory)
}

func TestImportHeaderCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	importer := ingest.NewImporter(db.Storage)

	csv := "produto,MARCA\nLIXA GROSSA,Norton\n"

	summary, err := importer.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	pending, err := db.Storage.GetPendingProducts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Norton", pending[0].Brand)
}

func TestImportMissingProductColumn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	importer := ingest.NewImporter(db.Storage)

	_, err := importer.Import(context.Background(), strings.NewReader("Marca,Modelo\nCiser,X\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Produto")
}

func TestImportEmptyCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	importer := ingest.NewImporter(db.Storage)

	summary, err := importer.Import(context.Background(), strings.NewReader("Produto\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Read)
	assert.Equal(t, 0, summary.Imported)
}
