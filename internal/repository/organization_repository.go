package repository

import (
	"context"
	"fmt"

	"evote-api/internal/domain"
	"evote-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type organizationRepository struct {
	db *database.PostgresDB
}

// NewOrganizationRepository creates a pgx-backed OrganizationRepository
func NewOrganizationRepository(db *database.PostgresDB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.CreatedBy,
	).Scan(&org.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	query := `
		SELECT id, name, description, created_by, created_at
		FROM organizations
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.CreatedBy,
		&org.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	query := `
		SELECT id, name, description, created_by, created_at
		FROM organizations
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedBy, &org.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}
