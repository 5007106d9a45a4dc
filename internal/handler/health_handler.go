package handler

import (
	"net/http"
	"time"

	"evote-api/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	status := "healthy"

	if err := h.container.GetDB().Health(ctx); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
	} else {
		checks["database"] = "ok"
	}

	if cache := h.container.GetServices().Cache; cache != nil {
		if err := cache.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			status = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   "evote-api",
		Checks:    checks,
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, response)
}
