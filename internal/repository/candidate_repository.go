package repository

import (
	"context"
	"fmt"

	"evote-api/internal/domain"
	"evote-api/pkg/database"

	"github.com/jackc/pgx/v5"
)

type candidateRepository struct {
	db *database.PostgresDB
}

// NewCandidateRepository creates a pgx-backed CandidateRepository
func NewCandidateRepository(db *database.PostgresDB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	query := `
		INSERT INTO candidates (id, election_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		candidate.ID,
		candidate.ElectionID,
		candidate.Name,
		candidate.Description,
	).Scan(&candidate.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	return nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	query := `
		SELECT id, election_id, name, description, created_at
		FROM candidates
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&candidate.ID,
		&candidate.ElectionID,
		&candidate.Name,
		&candidate.Description,
		&candidate.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	return &candidate, nil
}

func (r *candidateRepository) ListByElection(ctx context.Context, electionID string) ([]domain.Candidate, error) {
	query := `
		SELECT id, election_id, name, description, created_at
		FROM candidates
		WHERE election_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func (r *candidateRepository) CountByElection(ctx context.Context, electionID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates WHERE election_id = $1`, electionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return count, nil
}

func (r *candidateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}
