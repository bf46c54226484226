package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
	"github.com/edbgroup/paperflow/pkg/database"
)

// RecordRepository implements port.RecordRepository over SQLite
type RecordRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB, logger *zap.Logger) port.RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

const recordColumns = `
	id, code, workflow_type, status, category, department_id, creator_id,
	title, description, amount_cents, currency,
	approver_id, directeur_id, it_approver_id, final_approver_id, printed_by_id,
	selected_option_id, is_escalated, rejection_reason,
	submitted_at, created_at, updated_at
`

// Create inserts a new record
func (r *RecordRepository) Create(ctx context.Context, rec *entity.Record) error {
	query := `
		INSERT INTO records (
			code, workflow_type, status, category, department_id, creator_id,
			title, description, amount_cents, currency,
			approver_id, directeur_id, it_approver_id, final_approver_id, printed_by_id,
			selected_option_id, is_escalated, rejection_reason,
			submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rec.Code, rec.WorkflowType, rec.Status, rec.Category, rec.DepartmentID, rec.CreatorID,
		rec.Title, rec.Description, rec.AmountCents, rec.Currency,
		rec.ApproverID, rec.DirecteurID, rec.ITApproverID, rec.FinalApproverID, rec.PrintedByID,
		rec.SelectedOptionID, rec.IsEscalated, rec.RejectionReason,
		rec.SubmittedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create record", zap.Error(err), zap.String("code", rec.Code))
		return fmt.Errorf("failed to create record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetByID retrieves a record by internal ID, nil when absent
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*entity.Record, error) {
	query := `SELECT` + recordColumns + `FROM records WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// GetByCode retrieves a record by its human-readable code, nil when absent
func (r *RecordRepository) GetByCode(ctx context.Context, code string) (*entity.Record, error) {
	query := `SELECT` + recordColumns + `FROM records WHERE code = ?`
	return r.scanOne(ctx, query, code)
}

func (r *RecordRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.Record, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, query, arg)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get record", zap.Any("arg", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// List retrieves records with pagination, newest first. workflowType
// narrows the listing when non-empty.
func (r *RecordRepository) List(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error) {
	query := `SELECT` + recordColumns + `FROM records`
	args := []interface{}{}
	if workflowType != "" {
		query += ` WHERE workflow_type = ?`
		args = append(args, workflowType)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list records", zap.Error(err))
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*entity.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateWhereStatus writes the record's mutable fields guarded by the
// optimistic status check. A vanished or concurrently-moved row yields
// workflow.ErrConflict.
func (r *RecordRepository) UpdateWhereStatus(ctx context.Context, rec *entity.Record, expectedStatus string) error {
	query := `
		UPDATE records SET
			status = ?, category = ?,
			title = ?, description = ?, amount_cents = ?, currency = ?,
			approver_id = ?, directeur_id = ?, it_approver_id = ?, final_approver_id = ?, printed_by_id = ?,
			selected_option_id = ?, is_escalated = ?, rejection_reason = ?,
			submitted_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rec.Status, rec.Category,
		rec.Title, rec.Description, rec.AmountCents, rec.Currency,
		rec.ApproverID, rec.DirecteurID, rec.ITApproverID, rec.FinalApproverID, rec.PrintedByID,
		rec.SelectedOptionID, rec.IsEscalated, rec.RejectionReason,
		rec.SubmittedAt, rec.UpdatedAt,
		rec.ID, expectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to update record", zap.Int64("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %d no longer in status %s", workflow.ErrConflict, rec.ID, expectedStatus)
	}
	return nil
}

// DeleteWhereStatus removes a record under the same optimistic check.
func (r *RecordRepository) DeleteWhereStatus(ctx context.Context, id int64, expectedStatus string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM records WHERE id = ? AND status = ?`, id, expectedStatus)
	if err != nil {
		r.logger.Error("Failed to delete record", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %d no longer in status %s", workflow.ErrConflict, id, expectedStatus)
	}
	return nil
}

// scanRecord maps one row onto an entity.Record
func scanRecord(scan func(dest ...interface{}) error) (*entity.Record, error) {
	var rec entity.Record
	var submittedAt sql.NullTime

	err := scan(
		&rec.ID, &rec.Code, &rec.WorkflowType, &rec.Status, &rec.Category, &rec.DepartmentID, &rec.CreatorID,
		&rec.Title, &rec.Description, &rec.AmountCents, &rec.Currency,
		&rec.ApproverID, &rec.DirecteurID, &rec.ITApproverID, &rec.FinalApproverID, &rec.PrintedByID,
		&rec.SelectedOptionID, &rec.IsEscalated, &rec.RejectionReason,
		&submittedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		rec.SubmittedAt = &submittedAt.Time
	}
	return &rec, nil
}
