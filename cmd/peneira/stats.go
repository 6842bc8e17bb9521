package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmoraes/peneira/internal/cli"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog classification and deduplication statistics",
		RunE:  runStats,
	}

	cmd.Flags().Int("top", 10, "Number of categories to show in the distribution")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	counts, err := store.CountsByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to load product counts: %w", err)
	}

	groups, err := store.GroupSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load group summary: %w", err)
	}

	statusContent := fmt.Sprintf(
		"Total:      %d\nPending:    %d\nCompleted:  %d\nErrors:     %d\nMean confidence: %.2f",
		counts.Total, counts.Pending, counts.Completed, counts.Errors, counts.MeanConfidence)
	fmt.Println(cli.RenderBox(cli.FolderIcon+" Products", statusContent))

	groupContent := fmt.Sprintf(
		"Groups:           %d\nWith duplicates:  %d\nLargest group:    %d\nAvg group size:   %.2f",
		groups.TotalGroups, groups.GroupsWithDupes, groups.MaxGroupSize, groups.AvgGroupSize)
	fmt.Println(cli.RenderBox(cli.ChartIcon+" Duplicate Groups", groupContent))

	top, _ := cmd.Flags().GetInt("top")
	if top <= 0 {
		return nil
	}

	categories, err := store.TopCategories(ctx, top)
	if err != nil {
		return fmt.Errorf("failed to load category distribution: %w", err)
	}
	if len(categories) == 0 {
		return nil
	}

	var b strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&b, "%-50s %6d  (%.2f)\n", c.CategoryName, c.Count, c.MeanConfidence)
	}
	fmt.Println(cli.RenderBox(cli.ChartIcon+" Top Categories", strings.TrimRight(b.String(), "\n")))

	return nil
}
