package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmoraes/peneira/internal/cli"
	"github.com/gmoraes/peneira/internal/ingest"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.csv>",
		Short: "Import a product catalog CSV",
		Long: `Import products from a catalog CSV export into the local database.

Expected columns: Produto, Marca, Modelo, Categoria. The legacy
"Categoria" path is split on " > " into department, category, and
subcategory. Rows without a product name are skipped. Imported
products start in Pending status, ready for classification.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	importer := ingest.NewImporter(store)

	slog.Info("Importing catalog", "file", args[0])

	summary, err := importer.ImportFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d of %d products (%d skipped) in %s",
		summary.Imported, summary.Read, summary.Skipped, summary.Elapsed.Round(time.Millisecond))))

	return nil
}
