package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/pkg/database"
)

// UserRepository implements port.UserRepository over SQLite
type UserRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a directory entry
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, role, department_id, lark_open_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		user.ID, user.Name, user.Role, user.DepartmentID, user.LarkOpenID, user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user, nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT id, name, role, department_id, lark_open_id, created_at
		FROM users WHERE id = ?
	`

	var user entity.User
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Role, &user.DepartmentID, &user.LarkOpenID, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FindByRole returns the users holding a role; departmentID narrows the
// cohort when non-zero.
func (r *UserRepository) FindByRole(ctx context.Context, role string, departmentID int64) ([]*entity.User, error) {
	query := `
		SELECT id, name, role, department_id, lark_open_id, created_at
		FROM users WHERE role = ?
	`
	args := []interface{}{role}
	if departmentID != 0 {
		query += ` AND department_id = ?`
		args = append(args, departmentID)
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to find users by role", zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to find users by role: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		var user entity.User
		err := rows.Scan(&user.ID, &user.Name, &user.Role, &user.DepartmentID, &user.LarkOpenID, &user.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
