package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evote-api/internal/domain"
	"evote-api/internal/repository"
	apperrors "evote-api/pkg/errors"
	"evote-api/pkg/votetoken"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

// VotingService owns the anonymous vote ledger: casting, status checks and
// tallying. Votes are recorded under a pseudonymized token; no user reference
// ever reaches the ledger.
type VotingService struct {
	electionRepo  repository.ElectionRepository
	candidateRepo repository.CandidateRepository
	userRepo      repository.UserRepository
	voteRepo      repository.VoteRepository
	pseudonymizer *votetoken.Pseudonymizer
	cache         *CacheService
	logger        *zap.Logger
}

// NewVotingService creates a new voting service
func NewVotingService(
	electionRepo repository.ElectionRepository,
	candidateRepo repository.CandidateRepository,
	userRepo repository.UserRepository,
	voteRepo repository.VoteRepository,
	pseudonymizer *votetoken.Pseudonymizer,
	cache *CacheService,
	logger *zap.Logger,
) *VotingService {
	return &VotingService{
		electionRepo:  electionRepo,
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		voteRepo:      voteRepo,
		pseudonymizer: pseudonymizer,
		cache:         cache,
		logger:        logger,
	}
}

// CastVote validates and records one anonymous ballot. The validation order
// is fixed: election existence, active status, time window, candidate
// membership, then the duplicate check. The ledger's uniqueness constraint is
// the authoritative duplicate guard; the pre-insert existence check is only a
// fast path and both racing writers are safe.
func (s *VotingService) CastVote(ctx context.Context, userID, electionID, candidateID string) (*domain.VoteReceipt, error) {
	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election == nil {
		return nil, apperrors.NewNotFoundError("Election not found")
	}

	if election.Status != domain.StatusActive {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("Election is not active (current status: %s)", election.Status))
	}

	now := time.Now().UTC()
	if now.Before(election.StartTime) {
		return nil, apperrors.NewOutOfWindowError("Election has not started yet")
	}
	if now.After(election.EndTime) {
		return nil, apperrors.NewOutOfWindowError("Election has ended")
	}

	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load candidate", err)
	}
	if candidate == nil || candidate.ElectionID != electionID {
		return nil, apperrors.NewInvalidCandidateError("Invalid candidate for this election")
	}

	hashedToken, err := s.hashedTokenFor(ctx, userID, electionID)
	if err != nil {
		return nil, err
	}

	// Fast-path rejection. A miss here proves nothing; the insert decides.
	if s.cache.HasVotedToken(ctx, electionID, hashedToken) {
		return nil, apperrors.NewDuplicateVoteError("You have already voted in this election")
	}
	exists, err := s.voteRepo.Exists(ctx, electionID, hashedToken)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check existing vote", err)
	}
	if exists {
		s.cache.MarkVotedToken(ctx, electionID, hashedToken)
		return nil, apperrors.NewDuplicateVoteError("You have already voted in this election")
	}

	record := &domain.VoteRecord{
		ID:          uuid.New().String(),
		ElectionID:  electionID,
		CandidateID: candidateID,
		HashedToken: hashedToken,
	}

	if err := s.voteRepo.Insert(ctx, record); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == repository.UniqueVoteConstraint {
			// Lost the race to a concurrent cast with the same token. The
			// constraint is the contract; report the same duplicate outcome.
			s.cache.MarkVotedToken(ctx, electionID, hashedToken)
			return nil, apperrors.NewDuplicateVoteError("You have already voted in this election")
		}
		return nil, apperrors.NewInternalError("Failed to record vote", err)
	}

	s.cache.MarkVotedToken(ctx, electionID, hashedToken)

	s.logger.Info("vote recorded",
		zap.String("election_id", electionID),
		zap.String("candidate_id", candidateID))

	return &domain.VoteReceipt{
		ElectionID: electionID,
		VotedAt:    record.CreatedAt,
		Message:    "Vote cast successfully",
	}, nil
}

// HasVoted reports whether the account's voter identity already cast a ballot
// in the election. It derives the token exactly like CastVote so the answer
// always agrees with cast eligibility.
func (s *VotingService) HasVoted(ctx context.Context, userID, electionID string) (bool, error) {
	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return false, err
	}
	if election == nil {
		return false, apperrors.NewNotFoundError("Election not found")
	}

	hashedToken, err := s.hashedTokenFor(ctx, userID, electionID)
	if err != nil {
		return false, err
	}

	if s.cache.HasVotedToken(ctx, electionID, hashedToken) {
		return true, nil
	}

	exists, err := s.voteRepo.Exists(ctx, electionID, hashedToken)
	if err != nil {
		return false, apperrors.NewInternalError("Failed to check vote status", err)
	}
	if exists {
		s.cache.MarkVotedToken(ctx, electionID, hashedToken)
	}

	return exists, nil
}

// Tally aggregates the ledger into per-candidate counts for a closed
// election. Every candidate appears, zero-vote ones included, ordered by
// descending count with ties broken by candidate creation order.
func (s *VotingService) Tally(ctx context.Context, electionID string) (*domain.ElectionResults, error) {
	election, err := s.getElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election == nil {
		return nil, apperrors.NewNotFoundError("Election not found")
	}

	// Partial results on a running election would leak information to voters
	// who have not cast yet.
	if election.Status != domain.StatusClosed {
		return nil, apperrors.NewInvalidStateError("Results are only available after the election is closed")
	}

	if cached := s.cache.GetResults(ctx, electionID); cached != nil {
		return cached, nil
	}

	perCandidate, err := s.voteRepo.ResultsByElection(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to tally election", err)
	}

	total, err := s.voteRepo.CountByElection(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to count votes", err)
	}

	results := &domain.ElectionResults{
		ElectionID: electionID,
		Title:      election.Title,
		Status:     election.Status,
		TotalVotes: total,
		Results:    perCandidate,
	}

	s.cache.SetResults(ctx, results)

	return results, nil
}

func (s *VotingService) getElection(ctx context.Context, electionID string) (*domain.Election, error) {
	if cached := s.cache.GetElection(ctx, electionID); cached != nil {
		return cached, nil
	}

	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load election", err)
	}
	if election != nil {
		s.cache.SetElection(ctx, election)
	}

	return election, nil
}

// hashedTokenFor resolves the account to its stable voter identifier
// (employee ID preferred over account ID), derives the anonymous token and
// returns its storage digest.
func (s *VotingService) hashedTokenFor(ctx context.Context, userID, electionID string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to load user", err)
	}
	if user == nil || !user.IsActive {
		return "", apperrors.NewAuthenticationError("User not found or inactive")
	}

	token := s.pseudonymizer.Derive(user.VoterIdentifier(), electionID)
	return votetoken.Digest(token), nil
}
