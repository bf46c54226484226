package port

import (
	"context"

	"github.com/edbgroup/paperflow/internal/domain/entity"
)

// RecordRepository defines persistence operations for Record
type RecordRepository interface {
	Create(ctx context.Context, rec *entity.Record) error
	GetByID(ctx context.Context, id int64) (*entity.Record, error)
	GetByCode(ctx context.Context, code string) (*entity.Record, error)
	List(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error)

	// UpdateWhereStatus persists the record's mutable fields only if the
	// stored status still equals expectedStatus, returning
	// workflow.ErrConflict when it no longer does. This is the atomic
	// check the engine relies on to serialize per-record mutation.
	UpdateWhereStatus(ctx context.Context, rec *entity.Record, expectedStatus string) error

	// DeleteWhereStatus removes the record under the same optimistic check.
	DeleteWhereStatus(ctx context.Context, id int64, expectedStatus string) error
}

// AuditRepository defines persistence operations for the append-only audit log
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByRecordID(ctx context.Context, recordID int64, ascending bool) ([]*entity.AuditEntry, error)
}

// UserRepository defines read operations against the user directory
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// FindByRole returns users holding the role. departmentID scopes the
	// lookup when non-zero; zero means any department.
	FindByRole(ctx context.Context, role string, departmentID int64) ([]*entity.User, error)

	Create(ctx context.Context, user *entity.User) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
