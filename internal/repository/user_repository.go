package repository

import (
	"context"
	"fmt"

	"evote-api/internal/domain"
	"evote-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type userRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a pgx-backed UserRepository
func NewUserRepository(db *database.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, employee_id, password_hash, full_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.EmployeeID,
		user.PasswordHash,
		user.FullName,
		user.IsActive,
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE employee_id = $1`, employeeID)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, employee_id, password_hash, full_name, is_active, created_at
		FROM users ` + where

	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.EmployeeID,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, name)
	}

	return roles, rows.Err()
}

func (r *userRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, roleName)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Role name may not exist; surface that rather than silently no-op.
		var exists bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, roleName).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check role: %w", err)
		}
		if !exists {
			return fmt.Errorf("unknown role %q", roleName)
		}
	}

	return nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear roles: %w", err)
	}

	for _, name := range roles {
		tag, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`,
			userID, name)
		if err != nil {
			return fmt.Errorf("failed to assign role %q: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("unknown role %q", name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit role update: %w", err)
	}

	return nil
}
