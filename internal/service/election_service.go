package service

import (
	"context"
	"fmt"
	"strings"

	"evote-api/internal/domain"
	"evote-api/internal/repository"
	apperrors "evote-api/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ElectionService manages elections and their candidates through the
// draft -> active -> closed lifecycle.
type ElectionService struct {
	electionRepo  repository.ElectionRepository
	candidateRepo repository.CandidateRepository
	orgRepo       repository.OrganizationRepository
	cache         *CacheService
	logger        *zap.Logger
}

// NewElectionService creates a new election service
func NewElectionService(
	electionRepo repository.ElectionRepository,
	candidateRepo repository.CandidateRepository,
	orgRepo repository.OrganizationRepository,
	cache *CacheService,
	logger *zap.Logger,
) *ElectionService {
	return &ElectionService{
		electionRepo:  electionRepo,
		candidateRepo: candidateRepo,
		orgRepo:       orgRepo,
		cache:         cache,
		logger:        logger,
	}
}

// Create registers a new draft election under an organization
func (s *ElectionService) Create(ctx context.Context, createdBy string, req *domain.CreateElectionRequest) (*domain.Election, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("Title is required", nil)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.NewValidationError("End time must be after start time", nil)
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load organization", err)
	}
	if org == nil {
		return nil, apperrors.NewNotFoundError("Organization not found")
	}

	election := &domain.Election{
		ID:             uuid.New().String(),
		OrganizationID: req.OrganizationID,
		Title:          req.Title,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Status:         domain.StatusDraft,
		CreatedBy:      createdBy,
	}
	if req.Description != "" {
		election.Description = &req.Description
	}

	if err := s.electionRepo.Create(ctx, election); err != nil {
		return nil, apperrors.NewInternalError("Failed to create election", err)
	}

	s.logger.Info("election created",
		zap.String("election_id", election.ID),
		zap.String("organization_id", election.OrganizationID))

	return election, nil
}

// Get returns one election by ID
func (s *ElectionService) Get(ctx context.Context, electionID string) (*domain.Election, error) {
	if cached := s.cache.GetElection(ctx, electionID); cached != nil {
		return cached, nil
	}

	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load election", err)
	}
	if election == nil {
		return nil, apperrors.NewNotFoundError("Election not found")
	}

	s.cache.SetElection(ctx, election)
	return election, nil
}

// List returns all elections, optionally scoped to one organization
func (s *ElectionService) List(ctx context.Context, organizationID string) ([]domain.Election, error) {
	var (
		elections []domain.Election
		err       error
	)
	if organizationID != "" {
		elections, err = s.electionRepo.ListByOrganization(ctx, organizationID)
	} else {
		elections, err = s.electionRepo.List(ctx)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list elections", err)
	}
	return elections, nil
}

// Update edits a draft election's attributes. Once an election leaves draft
// its parameters are frozen so voters and auditors see stable terms.
func (s *ElectionService) Update(ctx context.Context, electionID string, update *domain.ElectionUpdate) (*domain.Election, error) {
	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != domain.StatusDraft {
		return nil, apperrors.NewInvalidStateError("Only draft elections can be updated")
	}
	if update.IsEmpty() {
		return election, nil
	}

	start := election.StartTime
	end := election.EndTime
	if update.StartTime != nil {
		start = *update.StartTime
	}
	if update.EndTime != nil {
		end = *update.EndTime
	}
	if !end.After(start) {
		return nil, apperrors.NewValidationError("End time must be after start time", nil)
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, apperrors.NewValidationError("Title cannot be empty", nil)
	}

	if err := s.electionRepo.Update(ctx, electionID, update); err != nil {
		return nil, apperrors.NewInternalError("Failed to update election", err)
	}

	s.cache.InvalidateElection(ctx, electionID)

	updated, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to reload election", err)
	}
	return updated, nil
}

// Activate moves a draft election to active. A meaningful contest needs at
// least two candidates, so thinner drafts are rejected.
func (s *ElectionService) Activate(ctx context.Context, electionID string) (*domain.Election, error) {
	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != domain.StatusDraft {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("Only draft elections can be activated (current status: %s)", election.Status))
	}

	count, err := s.candidateRepo.CountByElection(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to count candidates", err)
	}
	if count < domain.MinCandidatesToActivate {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("Election must have at least %d candidates to activate", domain.MinCandidatesToActivate))
	}

	return s.transition(ctx, election, domain.StatusActive)
}

// Close moves an active election to closed, making its tally available
func (s *ElectionService) Close(ctx context.Context, electionID string) (*domain.Election, error) {
	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != domain.StatusActive {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("Only active elections can be closed (current status: %s)", election.Status))
	}

	return s.transition(ctx, election, domain.StatusClosed)
}

// Delete removes a closed election and, through cascading deletion, its
// candidates and ballots. Draft and active elections cannot be deleted.
func (s *ElectionService) Delete(ctx context.Context, electionID string) error {
	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != domain.StatusClosed {
		return apperrors.NewInvalidStateError("Only closed elections can be deleted")
	}

	if err := s.electionRepo.Delete(ctx, electionID); err != nil {
		return apperrors.NewInternalError("Failed to delete election", err)
	}

	s.cache.InvalidateElection(ctx, electionID)

	s.logger.Info("election deleted", zap.String("election_id", electionID))
	return nil
}

// AddCandidate registers a candidate on a draft election
func (s *ElectionService) AddCandidate(ctx context.Context, electionID string, req *domain.AddCandidateRequest) (*domain.Candidate, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("Candidate name is required", nil)
	}

	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if election.Status != domain.StatusDraft {
		return nil, apperrors.NewInvalidStateError("Candidates can only be added to draft elections")
	}

	candidate := &domain.Candidate{
		ID:         uuid.New().String(),
		ElectionID: electionID,
		Name:       req.Name,
	}
	if req.Description != "" {
		candidate.Description = &req.Description
	}

	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, apperrors.NewInternalError("Failed to create candidate", err)
	}

	s.cache.InvalidateElection(ctx, electionID)
	return candidate, nil
}

// ListCandidates returns an election's candidates in creation order
func (s *ElectionService) ListCandidates(ctx context.Context, electionID string) ([]domain.Candidate, error) {
	if _, err := s.requireElection(ctx, electionID); err != nil {
		return nil, err
	}

	if cached := s.cache.GetCandidates(ctx, electionID); cached != nil {
		return cached, nil
	}

	candidates, err := s.candidateRepo.ListByElection(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list candidates", err)
	}

	s.cache.SetCandidates(ctx, electionID, candidates)
	return candidates, nil
}

// RemoveCandidate deletes a candidate from a draft election
func (s *ElectionService) RemoveCandidate(ctx context.Context, electionID, candidateID string) error {
	election, err := s.requireElection(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != domain.StatusDraft {
		return apperrors.NewInvalidStateError("Candidates can only be removed from draft elections")
	}

	candidate, err := s.candidateRepo.GetByID(ctx, candidateID)
	if err != nil {
		return apperrors.NewInternalError("Failed to load candidate", err)
	}
	if candidate == nil || candidate.ElectionID != electionID {
		return apperrors.NewNotFoundError("Candidate not found")
	}

	if err := s.candidateRepo.Delete(ctx, candidateID); err != nil {
		return apperrors.NewInternalError("Failed to delete candidate", err)
	}

	s.cache.InvalidateElection(ctx, electionID)
	return nil
}

func (s *ElectionService) requireElection(ctx context.Context, electionID string) (*domain.Election, error) {
	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load election", err)
	}
	if election == nil {
		return nil, apperrors.NewNotFoundError("Election not found")
	}
	return election, nil
}

func (s *ElectionService) transition(ctx context.Context, election *domain.Election, to domain.ElectionStatus) (*domain.Election, error) {
	if err := s.electionRepo.UpdateStatus(ctx, election.ID, to); err != nil {
		return nil, apperrors.NewInternalError("Failed to update election status", err)
	}

	s.cache.InvalidateElection(ctx, election.ID)

	s.logger.Info("election status changed",
		zap.String("election_id", election.ID),
		zap.String("from", string(election.Status)),
		zap.String("to", string(to)))

	election.Status = to
	return election, nil
}
