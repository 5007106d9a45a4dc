package handler

import (
	"encoding/json"
	"net/http"

	"evote-api/internal/domain"
	"evote-api/internal/middleware"
	"evote-api/internal/service"
	"evote-api/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// OrganizationHandler handles organization management requests
type OrganizationHandler struct {
	orgService *service.OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// Create handles POST /api/v1/organizations
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	var req domain.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	org, err := h.orgService.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, org)
}

// Get handles GET /api/v1/organizations/{orgId}
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgService.Get(r.Context(), chi.URLParam(r, "orgId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, org)
}

// List handles GET /api/v1/organizations
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgService.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orgs)
}

// Delete handles DELETE /api/v1/organizations/{orgId}
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orgService.Delete(r.Context(), chi.URLParam(r, "orgId")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
