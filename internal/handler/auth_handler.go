package handler

import (
	"encoding/json"
	"net/http"

	"evote-api/internal/domain"
	"evote-api/internal/middleware"
	"evote-api/internal/service"
	"evote-api/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	profile, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	pair, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// GoogleAuthURL handles GET /api/v1/auth/google/url, starting the
// server-driven sign-in flow.
func (h *AuthHandler) GoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()

	url, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"url":   url,
		"state": state,
	})
}

// GoogleCallback handles GET /api/v1/auth/google/callback, exchanging the
// authorization code Google appended to the redirect.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, errors.NewValidationError("code is required", nil))
		return
	}

	pair, err := h.authService.LoginWithGoogleCode(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// GoogleLogin handles POST /api/v1/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		respondError(w, errors.NewValidationError("id_token is required", nil))
		return
	}

	pair, err := h.authService.LoginWithGoogle(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, errors.NewValidationError("refresh_token is required", nil))
		return
	}

	pair, err := h.authService.Refresh(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	profile, err := h.authService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateRoles handles PUT /api/v1/users/{userId}/roles
func (h *AuthHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req domain.UpdateRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	if err := h.authService.UpdateRoles(r.Context(), userID, &req); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
