package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the
// application expects. Failing to reach it is a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: products, hash key dictionary, duplicate groups",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS products (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					raw_name TEXT NOT NULL,
					brand TEXT,
					model TEXT,
					original_category TEXT,
					old_department TEXT,
					old_category TEXT,
					old_subcategory TEXT,
					normalized_name TEXT,
					category_code TEXT,
					category_name TEXT,
					subcategory_code TEXT,
					subcategory_name TEXT,
					confidence REAL DEFAULT 0,
					reasoning TEXT,
					needs_review INTEGER DEFAULT 0,
					duplicate_group_id INTEGER,
					is_master INTEGER DEFAULT 0,
					similarity_score REAL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'PENDING',
					error_message TEXT,
					batch_id TEXT,
					classified_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_status ON products(status)`,
				`CREATE INDEX idx_products_group ON products(duplicate_group_id)`,

				// The binding of a key to its group is immutable once
				// written; inserts against an existing (key_type, hash_key)
				// pair only bump hit_count.
				`CREATE TABLE IF NOT EXISTS hash_keys (
					key_type TEXT NOT NULL,
					hash_key TEXT NOT NULL,
					duplicate_group_id INTEGER NOT NULL,
					confidence_weight REAL NOT NULL,
					hit_count INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (key_type, hash_key)
				)`,
				`CREATE INDEX idx_hash_keys_group ON hash_keys(duplicate_group_id)`,

				// AUTOINCREMENT keeps allocated group ids monotonic and
				// never reused, even after deletes or rollbacks.
				`CREATE TABLE IF NOT EXISTS duplicate_groups (
					group_id INTEGER PRIMARY KEY AUTOINCREMENT,
					master_product_id INTEGER,
					master_name TEXT,
					product_count INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add batch statistics table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS batch_stats (
					batch_id TEXT PRIMARY KEY,
					batch_number INTEGER,
					total_processed INTEGER,
					succeeded INTEGER,
					failed INTEGER,
					new_masters INTEGER,
					duplicates INTEGER,
					low_confidence INTEGER,
					elapsed_ms INTEGER,
					started_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Index products by category for distribution reports",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_name)`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
