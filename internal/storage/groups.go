package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gmoraes/peneira/internal/common"
	"github.com/gmoraes/peneira/internal/model"
)

// GetGroup returns a duplicate group by id, or common.ErrNotFound.
func (s *SQLiteStorage) GetGroup(ctx context.Context, groupID int64) (*model.DuplicateGroup, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		g          model.DuplicateGroup
		masterID   sql.NullInt64
		masterName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT group_id, master_product_id, master_name, product_count, created_at, updated_at
		FROM duplicate_groups
		WHERE group_id = ?
	`, groupID).Scan(&g.ID, &masterID, &masterName, &g.ProductCount, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("duplicate group %d: %w", groupID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get duplicate group %d: %w", groupID, err)
	}

	g.MasterProductID = masterID.Int64
	g.MasterName = masterName.String
	return &g, nil
}

// UpdateGroupMaster records the master product of a freshly allocated
// group and counts it as the group's first member.
func (s *SQLiteStorage) UpdateGroupMaster(ctx context.Context, groupID, masterProductID int64, masterName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE duplicate_groups SET
			master_product_id = ?,
			master_name = ?,
			product_count = product_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE group_id = ?
	`, masterProductID, masterName, groupID)
	if err != nil {
		return fmt.Errorf("failed to set master for group %d: %w", groupID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("duplicate group %d: %w", groupID, common.ErrNotFound)
	}
	return nil
}

// IncrementGroupCount counts one more product into an existing group.
func (s *SQLiteStorage) IncrementGroupCount(ctx context.Context, groupID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE duplicate_groups SET
			product_count = product_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE group_id = ?
	`, groupID)
	if err != nil {
		return fmt.Errorf("failed to increment count for group %d: %w", groupID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check group update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("duplicate group %d: %w", groupID, common.ErrNotFound)
	}
	return nil
}

// GroupSummary aggregates duplicate-group statistics for reporting.
func (s *SQLiteStorage) GroupSummary(ctx context.Context) (model.GroupSummary, error) {
	var summary model.GroupSummary
	if err := validateContext(ctx); err != nil {
		return summary, err
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN product_count > 1 THEN 1 END),
			COALESCE(MAX(product_count), 0),
			COALESCE(AVG(product_count), 0)
		FROM duplicate_groups
	`).Scan(&summary.TotalGroups, &summary.GroupsWithDupes, &summary.MaxGroupSize, &summary.AvgGroupSize)
	if err != nil {
		return summary, fmt.Errorf("failed to summarize duplicate groups: %w", err)
	}
	return summary, nil
}
