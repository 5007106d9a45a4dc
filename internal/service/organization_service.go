package service

import (
	"context"
	"strings"

	"evote-api/internal/domain"
	"evote-api/internal/repository"
	apperrors "evote-api/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationService manages the organizations that own elections
type OrganizationService struct {
	orgRepo      repository.OrganizationRepository
	electionRepo repository.ElectionRepository
	logger       *zap.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(orgRepo repository.OrganizationRepository, electionRepo repository.ElectionRepository, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		electionRepo: electionRepo,
		logger:       logger,
	}
}

// Create registers a new organization
func (s *OrganizationService) Create(ctx context.Context, createdBy string, req *domain.CreateOrganizationRequest) (*domain.Organization, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("Organization name is required", nil)
	}

	org := &domain.Organization{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedBy: createdBy,
	}
	if req.Description != "" {
		org.Description = &req.Description
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, apperrors.NewInternalError("Failed to create organization", err)
	}

	s.logger.Info("organization created", zap.String("organization_id", org.ID))
	return org, nil
}

// Get returns one organization by ID
func (s *OrganizationService) Get(ctx context.Context, id string) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to load organization", err)
	}
	if org == nil {
		return nil, apperrors.NewNotFoundError("Organization not found")
	}
	return org, nil
}

// List returns all organizations
func (s *OrganizationService) List(ctx context.Context) ([]domain.Organization, error) {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list organizations", err)
	}
	return orgs, nil
}

// Delete removes an organization. Organizations with non-closed elections
// cannot be removed; deletion cascades to the closed elections' ballots.
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return apperrors.NewInternalError("Failed to load organization", err)
	}
	if org == nil {
		return apperrors.NewNotFoundError("Organization not found")
	}

	elections, err := s.electionRepo.ListByOrganization(ctx, id)
	if err != nil {
		return apperrors.NewInternalError("Failed to list elections", err)
	}
	for _, e := range elections {
		if e.Status != domain.StatusClosed {
			return apperrors.NewInvalidStateError("Organization still has open elections")
		}
	}

	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return apperrors.NewInternalError("Failed to delete organization", err)
	}

	s.logger.Info("organization deleted", zap.String("organization_id", id))
	return nil
}
