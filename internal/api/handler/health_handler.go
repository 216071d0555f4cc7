package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartwaste/civic-core/internal/core/ports"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	backend string
	store   ports.SessionStore
}

// NewHealthHandler checks store, reported under the name backend.
func NewHealthHandler(backend string, store ports.SessionStore) *HealthHandler {
	return &HealthHandler{backend: backend, store: store}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Liveness returns 200 as long as the process serves requests.
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings the session store.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, 1)
	status, code := "ok", http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		deps[h.backend] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		status, code = "degraded", http.StatusServiceUnavailable
	} else {
		deps[h.backend] = dependencyStatus{Status: "ok"}
	}

	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
