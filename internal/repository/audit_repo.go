package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/pkg/database"
)

// AuditRepository implements port.AuditRepository over SQLite. Entries
// are append-only; there is no update or delete path.
type AuditRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (
			record_id, actor_id, event_type, previous_status, new_status, details, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entry.RecordID, entry.ActorID, entry.EventType,
		entry.PreviousStatus, entry.NewStatus, entry.Details, entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry", zap.Int64("record_id", entry.RecordID), zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByRecordID retrieves all entries for a record ordered by timestamp
func (r *AuditRepository) ListByRecordID(ctx context.Context, recordID int64, ascending bool) ([]*entity.AuditEntry, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT id, record_id, actor_id, event_type, previous_status, new_status, details, timestamp
		FROM audit_entries
		WHERE record_id = ?
		ORDER BY timestamp %s, id %s
	`, order, order)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, recordID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Int64("record_id", recordID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		err := rows.Scan(
			&entry.ID, &entry.RecordID, &entry.ActorID, &entry.EventType,
			&entry.PreviousStatus, &entry.NewStatus, &entry.Details, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
