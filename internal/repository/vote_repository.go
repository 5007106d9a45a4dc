package repository

import (
	"context"
	"fmt"

	"evote-api/internal/domain"
	"evote-api/pkg/database"
)

// UniqueVoteConstraint is the name of the composite uniqueness constraint on
// (election_id, hashed_token). It is the sole mechanism preventing duplicate
// votes under concurrent submission; services match on it when translating
// constraint violations.
const UniqueVoteConstraint = "uq_votes_election_token"

type voteRepository struct {
	db *database.PostgresDB
}

// NewVoteRepository creates a pgx-backed VoteRepository
func NewVoteRepository(db *database.PostgresDB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Insert(ctx context.Context, record *domain.VoteRecord) error {
	query := `
		INSERT INTO votes (id, election_id, candidate_id, hashed_token)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ID,
		record.ElectionID,
		record.CandidateID,
		record.HashedToken,
	).Scan(&record.CreatedAt)

	if err != nil {
		// Do not wrap: callers inspect the pgconn error to recognize the
		// uniqueness violation as the duplicate signal.
		return err
	}

	return nil
}

func (r *voteRepository) Exists(ctx context.Context, electionID, hashedToken string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM votes WHERE election_id = $1 AND hashed_token = $2)`

	err := r.db.Pool.QueryRow(ctx, query, electionID, hashedToken).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}

	return exists, nil
}

func (r *voteRepository) ResultsByElection(ctx context.Context, electionID string) ([]domain.CandidateResult, error) {
	query := `
		SELECT c.id, c.name, COUNT(v.id) AS vote_count
		FROM candidates c
		LEFT JOIN votes v ON v.candidate_id = c.id
		WHERE c.election_id = $1
		GROUP BY c.id, c.name, c.created_at
		ORDER BY COUNT(v.id) DESC, c.created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get election results: %w", err)
	}
	defer rows.Close()

	var results []domain.CandidateResult
	for rows.Next() {
		var res domain.CandidateResult
		if err := rows.Scan(&res.CandidateID, &res.CandidateName, &res.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

func (r *voteRepository) CountByElection(ctx context.Context, electionID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE election_id = $1`, electionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}
