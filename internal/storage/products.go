package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gmoraes/peneira/internal/common"
	"github.com/gmoraes/peneira/internal/model"
)

// productColumns is the canonical column list used by every product scan.
const productColumns = `id, raw_name, brand, model, original_category,
	old_department, old_category, old_subcategory,
	normalized_name, category_code, category_name,
	subcategory_code, subcategory_name, confidence, reasoning,
	needs_review, duplicate_group_id, is_master, similarity_score,
	status, error_message, batch_id, classified_at, created_at, updated_at`

// SaveProducts inserts ingested products in Pending status. Each row is
// inserted inside one transaction; the returned count is the number of
// rows written.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateProducts(products); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			raw_name, brand, model, original_category,
			old_department, old_category, old_subcategory,
			status, batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.RawName, p.Brand, p.Model, p.OriginalCategory,
			p.OldDepartment, p.OldCategory, p.OldSubcategory,
			string(model.StatusPending), p.BatchID,
		); err != nil {
			return 0, fmt.Errorf("failed to insert product %q: %w", p.RawName, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit products: %w", err)
	}
	return inserted, nil
}

// GetPendingProducts returns up to limit products awaiting
// classification, oldest first.
func (s *SQLiteStorage) GetPendingProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE status = ?
		ORDER BY id
		LIMIT ?
	`, string(model.StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanProducts(rows)
}

// GetProductByID returns a single product, or common.ErrNotFound.
func (s *SQLiteStorage) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

// SaveClassification persists a successful classification together with
// its duplicate match verdict and marks the product Completed. The
// commit is per-product; a crash between products leaves a resumable
// Pending set behind.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, productID int64, result model.ClassificationResult, match model.MatchResult, batchID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	needsReview := 0
	if result.Confidence < model.NeedsReviewThreshold {
		needsReview = 1
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			normalized_name = ?,
			category_code = ?,
			category_name = ?,
			subcategory_code = ?,
			subcategory_name = ?,
			confidence = ?,
			reasoning = ?,
			needs_review = ?,
			duplicate_group_id = ?,
			is_master = ?,
			similarity_score = ?,
			status = ?,
			error_message = '',
			batch_id = ?,
			classified_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		result.NormalizedName,
		result.CategoryCode,
		result.CategoryName,
		result.SubcategoryCode,
		result.SubcategoryName,
		result.Confidence,
		result.Reasoning,
		needsReview,
		match.GroupID,
		boolToInt(match.IsMaster),
		match.Confidence,
		string(model.StatusCompleted),
		batchID,
		time.Now(),
		productID,
	)
	if err != nil {
		return fmt.Errorf("failed to save classification for product %d: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check classification update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %d: %w", productID, common.ErrNotFound)
	}
	return nil
}

// MarkProductError records a failed classification attempt. The product
// stays re-enterable via ResetErrorProducts.
func (s *SQLiteStorage) MarkProductError(ctx context.Context, productID int64, message string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			status = ?,
			error_message = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(model.StatusError), message, productID)
	if err != nil {
		return fmt.Errorf("failed to mark product %d as error: %w", productID, err)
	}
	return nil
}

// ResetErrorProducts transitions every Error product back to Pending so
// the next run picks them up again. Returns the number reset.
func (s *SQLiteStorage) ResetErrorProducts(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			status = ?,
			error_message = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE status = ?
	`, string(model.StatusPending), string(model.StatusError))
	if err != nil {
		return 0, fmt.Errorf("failed to reset error products: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset products: %w", err)
	}
	return int(affected), nil
}

// CountsByStatus reports product counts per status plus the mean
// confidence over completed products.
func (s *SQLiteStorage) CountsByStatus(ctx context.Context) (model.StatusCounts, error) {
	var counts model.StatusCounts
	if err := validateContext(ctx); err != nil {
		return counts, err
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'PENDING' THEN 1 END),
			COUNT(CASE WHEN status = 'COMPLETED' THEN 1 END),
			COUNT(CASE WHEN status = 'ERROR' THEN 1 END),
			COALESCE(AVG(CASE WHEN status = 'COMPLETED' THEN confidence END), 0)
		FROM products
	`).Scan(&counts.Total, &counts.Pending, &counts.Completed, &counts.Errors, &counts.MeanConfidence)
	if err != nil {
		return counts, fmt.Errorf("failed to count products by status: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p            model.Product
		brand        sql.NullString
		mdl          sql.NullString
		origCat      sql.NullString
		oldDept      sql.NullString
		oldCat       sql.NullString
		oldSubcat    sql.NullString
		normName     sql.NullString
		catCode      sql.NullString
		catName      sql.NullString
		subcatCode   sql.NullString
		subcatName   sql.NullString
		reasoning    sql.NullString
		needsReview  int
		groupID      sql.NullInt64
		isMaster     int
		errMsg       sql.NullString
		batchID      sql.NullString
		classifiedAt sql.NullTime
		status       string
	)

	err := row.Scan(
		&p.ID, &p.RawName, &brand, &mdl, &origCat,
		&oldDept, &oldCat, &oldSubcat,
		&normName, &catCode, &catName,
		&subcatCode, &subcatName, &p.Confidence, &reasoning,
		&needsReview, &groupID, &isMaster, &p.SimilarityScore,
		&status, &errMsg, &batchID, &classifiedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Brand = brand.String
	p.Model = mdl.String
	p.OriginalCategory = origCat.String
	p.OldDepartment = oldDept.String
	p.OldCategory = oldCat.String
	p.OldSubcategory = oldSubcat.String
	p.NormalizedName = normName.String
	p.CategoryCode = catCode.String
	p.CategoryName = catName.String
	p.SubcategoryCode = subcatCode.String
	p.SubcategoryName = subcatName.String
	p.Reasoning = reasoning.String
	p.NeedsReview = needsReview != 0
	p.IsMaster = isMaster != 0
	p.ErrorMessage = errMsg.String
	p.BatchID = batchID.String
	p.Status = model.ProductStatus(status)
	if groupID.Valid {
		p.DuplicateGroupID = &groupID.Int64
	}
	if classifiedAt.Valid {
		t := classifiedAt.Time
		p.ClassifiedAt = &t
	}

	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product row iteration failed: %w", err)
	}
	return products, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
