package repository

import (
	"context"

	"evote-api/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by account ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByEmployeeID retrieves a user by organization-issued employee ID
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error)

	// GetRoles returns the role names assigned to a user
	GetRoles(ctx context.Context, userID string) ([]string, error)

	// AssignRole grants a role to a user, ignoring duplicates
	AssignRole(ctx context.Context, userID, roleName string) error

	// ReplaceRoles replaces a user's role set atomically
	ReplaceRoles(ctx context.Context, userID string, roles []string) error
}

// OrganizationRepository defines the interface for organization data operations
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Delete(ctx context.Context, id string) error
}

// ElectionRepository defines the interface for election data operations
type ElectionRepository interface {
	Create(ctx context.Context, election *domain.Election) error
	GetByID(ctx context.Context, id string) (*domain.Election, error)
	List(ctx context.Context) ([]domain.Election, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Election, error)

	// Update applies the non-nil fields of the update. Lifecycle rules
	// (draft-only) are the service's job.
	Update(ctx context.Context, id string, update *domain.ElectionUpdate) error

	UpdateStatus(ctx context.Context, id string, status domain.ElectionStatus) error
	Delete(ctx context.Context, id string) error
}

// CandidateRepository defines the interface for candidate data operations
type CandidateRepository interface {
	Create(ctx context.Context, candidate *domain.Candidate) error
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	ListByElection(ctx context.Context, electionID string) ([]domain.Candidate, error)
	CountByElection(ctx context.Context, electionID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// VoteRepository defines the interface for the anonymous vote ledger
type VoteRepository interface {
	// Insert appends one VoteRecord. The votes table carries a composite
	// uniqueness constraint on (election_id, hashed_token); a violation
	// surfaces as a *pgconn.PgError with code 23505 and is the authoritative
	// duplicate signal under concurrency.
	Insert(ctx context.Context, record *domain.VoteRecord) error

	// Exists reports whether a hashed token is already recorded for an
	// election. This is only a fast-path check; Insert remains the guard.
	Exists(ctx context.Context, electionID, hashedToken string) (bool, error)

	// ResultsByElection returns per-candidate counts including zero-vote
	// candidates, ordered by count descending then candidate creation order.
	ResultsByElection(ctx context.Context, electionID string) ([]domain.CandidateResult, error)

	// CountByElection returns the total ballots recorded for an election.
	CountByElection(ctx context.Context, electionID string) (int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User         UserRepository
	Organization OrganizationRepository
	Election     ElectionRepository
	Candidate    CandidateRepository
	Vote         VoteRepository
}
