package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmoraes/peneira/internal/cli"
	"github.com/gmoraes/peneira/internal/dedup"
	"github.com/gmoraes/peneira/internal/engine"
	"github.com/gmoraes/peneira/internal/model"
	"github.com/gmoraes/peneira/internal/normalize"
	"github.com/gmoraes/peneira/internal/service"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify pending products and detect duplicates",
		Long: `Drain all pending products through the classification pipeline.

Each product is classified into the MRO taxonomy, normalized, and
resolved against the duplicate dictionary. Results are committed
per product, so an interrupted run resumes where it left off.`,
		RunE: runClassify,
	}

	cmd.Flags().Int("batch-size", 50, "Products fetched per batch")
	cmd.Flags().Int("max-batches", 0, "Stop after this many batches (0 = run until drained)")
	cmd.Flags().Duration("product-delay", 500*time.Millisecond, "Pause between products within a batch")
	cmd.Flags().Duration("batch-delay", 2*time.Second, "Pause between full batches")
	cmd.Flags().String("provider", "", "LLM provider (openai or anthropic), overrides config")
	cmd.Flags().String("model", "", "LLM model name, overrides config")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
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

	stats, err := eng.Run(ctx)
	printRunStats(stats)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("classification run failed: %w", err)
	}
	return nil
}

// buildEngine wires storage, classifier, resolver, and normalizer into
// a ready-to-run engine.
func buildEngine(cmd *cobra.Command, store service.Storage) (*engine.ClassificationEngine, func(), error) {
	tax, err := loadTaxonomy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load taxonomy: %w", err)
	}

	provider, _ := cmd.Flags().GetString("provider")
	modelName, _ := cmd.Flags().GetString("model")

	classifier, err := initClassifier(tax, provider, modelName)
	if err != nil {
		return nil, nil, err
	}

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	maxBatches, _ := cmd.Flags().GetInt("max-batches")

	// Flags win over config file values when set explicitly.
	productDelay := durationFlag("engine.product_delay", 500*time.Millisecond)
	if cmd.Flags().Changed("product-delay") {
		productDelay, _ = cmd.Flags().GetDuration("product-delay")
	}
	batchDelay := durationFlag("engine.batch_delay", 2*time.Second)
	if cmd.Flags().Changed("batch-delay") {
		batchDelay, _ = cmd.Flags().GetDuration("batch-delay")
	}

	cfg := engine.Config{
		BatchSize:    batchSize,
		MaxBatches:   maxBatches,
		ProductDelay: productDelay,
		BatchDelay:   batchDelay,
		ShowProgress: !noProgress,
	}

	eng := engine.NewWithConfig(
		store,
		classifier,
		dedup.NewResolver(store),
		normalize.NewNormalizer(),
		cfg,
	)

	return eng, classifier.Close, nil
}

func printRunStats(stats model.RunStats) {
	content := fmt.Sprintf(
		"Batches:        %d\nProcessed:      %d\nSucceeded:      %d\nFailed:         %d\nNew masters:    %d\nDuplicates:     %d\nNeeds review:   %d\nMean confidence: %.2f\nElapsed:        %s",
		stats.Batches,
		stats.TotalProcessed,
		stats.Succeeded,
		stats.Failed,
		stats.NewMasters,
		stats.Duplicates,
		stats.LowConfidence,
		stats.MeanConfidence(),
		stats.Elapsed().Round(time.Millisecond),
	)
	fmt.Println(cli.RenderBox(cli.ChartIcon+" Classification Run", content))
}
