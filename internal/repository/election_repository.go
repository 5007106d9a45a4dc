package repository

import (
	"context"
	"fmt"
	"strings"

	"evote-api/internal/domain"
	"evote-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type electionRepository struct {
	db *database.PostgresDB
}

// NewElectionRepository creates a pgx-backed ElectionRepository
func NewElectionRepository(db *database.PostgresDB) ElectionRepository {
	return &electionRepository{db: db}
}

func (r *electionRepository) Create(ctx context.Context, election *domain.Election) error {
	query := `
		INSERT INTO elections (id, organization_id, title, description, start_time, end_time, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		election.ID,
		election.OrganizationID,
		election.Title,
		election.Description,
		election.StartTime,
		election.EndTime,
		election.Status,
		election.CreatedBy,
	).Scan(&election.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}

	return nil
}

func (r *electionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	var election domain.Election
	query := `
		SELECT id, organization_id, title, description, start_time, end_time, status, created_by, created_at
		FROM elections
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&election.ID,
		&election.OrganizationID,
		&election.Title,
		&election.Description,
		&election.StartTime,
		&election.EndTime,
		&election.Status,
		&election.CreatedBy,
		&election.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %w", err)
	}

	return &election, nil
}

func (r *electionRepository) List(ctx context.Context) ([]domain.Election, error) {
	return r.list(ctx, ``)
}

func (r *electionRepository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Election, error) {
	return r.list(ctx, `WHERE organization_id = $1`, orgID)
}

func (r *electionRepository) list(ctx context.Context, where string, args ...interface{}) ([]domain.Election, error) {
	query := `
		SELECT id, organization_id, title, description, start_time, end_time, status, created_by, created_at
		FROM elections ` + where + `
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	defer rows.Close()

	var elections []domain.Election
	for rows.Next() {
		var e domain.Election
		err := rows.Scan(
			&e.ID,
			&e.OrganizationID,
			&e.Title,
			&e.Description,
			&e.StartTime,
			&e.EndTime,
			&e.Status,
			&e.CreatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}

	return elections, rows.Err()
}

// Update applies the non-nil fields of the update. Each settable column is
// named explicitly; there is deliberately no generic attribute patching here.
func (r *electionRepository) Update(ctx context.Context, id string, update *domain.ElectionUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)

	if update.Title != nil {
		args = append(args, *update.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.Description != nil {
		args = append(args, *update.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if update.StartTime != nil {
		args = append(args, *update.StartTime)
		sets = append(sets, fmt.Sprintf("start_time = $%d", len(args)))
	}
	if update.EndTime != nil {
		args = append(args, *update.EndTime)
		sets = append(sets, fmt.Sprintf("end_time = $%d", len(args)))
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE elections SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	if _, err := r.db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}

	return nil
}

func (r *electionRepository) UpdateStatus(ctx context.Context, id string, status domain.ElectionStatus) error {
	if _, err := r.db.Pool.Exec(ctx, `UPDATE elections SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}
	return nil
}

func (r *electionRepository) Delete(ctx context.Context, id string) error {
	// Candidates and vote records go with it via ON DELETE CASCADE.
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM elections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete election: %w", err)
	}
	return nil
}
