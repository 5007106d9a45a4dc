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

// VotingHandler handles ballot casting, vote status and results requests
type VotingHandler struct {
	votingService *service.VotingService
}

// NewVotingHandler creates a new voting handler
func NewVotingHandler(votingService *service.VotingService) *VotingHandler {
	return &VotingHandler{
		votingService: votingService,
	}
}

// CastVote handles POST /api/v1/elections/{electionId}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionId")

	var req domain.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if req.CandidateID == "" {
		respondError(w, errors.NewValidationError("candidate_id is required", nil))
		return
	}

	receipt, err := h.votingService.CastVote(r.Context(), claims.UserID, electionID, req.CandidateID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// VoteStatus handles GET /api/v1/elections/{electionId}/votes/me
func (h *VotingHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionId")

	voted, err := h.votingService.HasVoted(r.Context(), claims.UserID, electionID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.VoteStatusResponse{
		ElectionID: electionID,
		HasVoted:   voted,
	})
}

// Results handles GET /api/v1/elections/{electionId}/results
func (h *VotingHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.votingService.Tally(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
