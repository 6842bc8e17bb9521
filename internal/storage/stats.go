package storage

import (
	"context"
	"fmt"

	"github.com/gmoraes/peneira/internal/model"
)

// SaveBatchStats records the counters for one finished batch.
func (s *SQLiteStorage) SaveBatchStats(ctx context.Context, stats model.BatchStats) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(stats.BatchID, "batchID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_stats (
			batch_id, batch_number, total_processed, succeeded, failed,
			new_masters, duplicates, low_confidence, elapsed_ms, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stats.BatchID, stats.BatchNumber, stats.TotalProcessed,
		stats.Succeeded, stats.Failed, stats.NewMasters,
		stats.Duplicates, stats.LowConfidence,
		stats.Elapsed.Milliseconds(), stats.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save stats for batch %s: %w", stats.BatchID, err)
	}
	return nil
}

// TopCategories reports the most populated categories among completed
// products, with their mean classifier confidence.
func (s *SQLiteStorage) TopCategories(ctx context.Context, limit int) ([]model.CategoryCount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_name, COUNT(*), COALESCE(AVG(confidence), 0)
		FROM products
		WHERE status = 'COMPLETED' AND category_name IS NOT NULL AND category_name != ''
		GROUP BY category_name
		ORDER BY COUNT(*) DESC, category_name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query category distribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		if err := rows.Scan(&c.CategoryName, &c.Count, &c.MeanConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category row iteration failed: %w", err)
	}
	return categories, nil
}
