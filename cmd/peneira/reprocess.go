package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmoraes/peneira/internal/cli"
)

func reprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Retry products that previously failed classification",
		Long: `Reset every product in Error status back to Pending and run the
classification pipeline over them again.

Useful after transient provider outages or rate limit storms.`,
		RunE: runReprocess,
	}

	cmd.Flags().Int("batch-size", 50, "Products fetched per batch")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runReprocess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng, classifierClose, err := buildEngine(cmd, store)
	if err != nil {
		return err
	}
	defer classifierClose()

	stats, err := eng.Reprocess(ctx)
	if stats.TotalProcessed == 0 && err == nil {
		fmt.Println(cli.FormatInfo("No error products to reprocess"))
		return nil
	}

	printRunStats(stats)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("reprocess run failed: %w", err)
	}
	return nil
}
