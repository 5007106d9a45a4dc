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

// ElectionHandler handles election and candidate management requests
type ElectionHandler struct {
	electionService *service.ElectionService
}

// NewElectionHandler creates a new election handler
func NewElectionHandler(electionService *service.ElectionService) *ElectionHandler {
	return &ElectionHandler{
		electionService: electionService,
	}
}

// Create handles POST /api/v1/elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	var req domain.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	election, err := h.electionService.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, election)
}

// Get handles GET /api/v1/elections/{electionId}
func (h *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	election, err := h.electionService.Get(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, election)
}

// List handles GET /api/v1/elections with an optional organization_id filter
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	elections, err := h.electionService.List(r.Context(), r.URL.Query().Get("organization_id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, elections)
}

// Update handles PATCH /api/v1/elections/{electionId}
func (h *ElectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update domain.ElectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	election, err := h.electionService.Update(r.Context(), chi.URLParam(r, "electionId"), &update)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, election)
}

// Activate handles POST /api/v1/elections/{electionId}/activate
func (h *ElectionHandler) Activate(w http.ResponseWriter, r *http.Request) {
	election, err := h.electionService.Activate(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, election)
}

// Close handles POST /api/v1/elections/{electionId}/close
func (h *ElectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	election, err := h.electionService.Close(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, election)
}

// Delete handles DELETE /api/v1/elections/{electionId}
func (h *ElectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.electionService.Delete(r.Context(), chi.URLParam(r, "electionId")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddCandidate handles POST /api/v1/elections/{electionId}/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	var req domain.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	candidate, err := h.electionService.AddCandidate(r.Context(), chi.URLParam(r, "electionId"), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, candidate)
}

// ListCandidates handles GET /api/v1/elections/{electionId}/candidates
func (h *ElectionHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.electionService.ListCandidates(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, candidates)
}

// RemoveCandidate handles DELETE /api/v1/elections/{electionId}/candidates/{candidateId}
func (h *ElectionHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	err := h.electionService.RemoveCandidate(r.Context(),
		chi.URLParam(r, "electionId"), chi.URLParam(r, "candidateId"))
	if err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
