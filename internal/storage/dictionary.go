package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gmoraes/peneira/internal/model"
)

// LookupKey returns the dictionary entry for a (key type, hash key)
// pair, or nil when the key has never been registered.
func (s *SQLiteStorage) LookupKey(ctx context.Context, keyType model.KeyType, hashKey string) (*model.HashKeyEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(keyType), "keyType"); err != nil {
		return nil, err
	}

	var entry model.HashKeyEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT key_type, hash_key, duplicate_group_id, confidence_weight, hit_count
		FROM hash_keys
		WHERE key_type = ? AND hash_key = ?
	`, string(keyType), hashKey).Scan(
		&entry.KeyType, &entry.HashKey, &entry.DuplicateGroupID,
		&entry.ConfidenceWeight, &entry.HitCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s key: %w", keyType, err)
	}
	return &entry, nil
}

// InsertOrBumpKey registers a key binding, or increments the hit count
// when the key already exists. The existing group binding is never
// overwritten: the first writer owns the key.
func (s *SQLiteStorage) InsertOrBumpKey(ctx context.Context, entry model.HashKeyEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKeyEntry(entry); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hash_keys (key_type, hash_key, duplicate_group_id, confidence_weight, hit_count)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(key_type, hash_key) DO UPDATE SET hit_count = hit_count + 1
	`, string(entry.KeyType), entry.HashKey, entry.DuplicateGroupID, entry.ConfidenceWeight)
	if err != nil {
		return fmt.Errorf("failed to register %s key: %w", entry.KeyType, err)
	}
	return nil
}

// NextGroupID allocates a fresh duplicate group id. The insert into an
// AUTOINCREMENT table makes allocation atomic and ids never reused.
func (s *SQLiteStorage) NextGroupID(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO duplicate_groups (product_count) VALUES (0)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate duplicate group: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read allocated group id: %w", err)
	}
	return id, nil
}
