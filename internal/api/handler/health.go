package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/ports"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger is the probe surface the upstream API client offers readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessHandler handles GET /health/ready, the readiness probe. Checks that
// the credential store is readable and the upstream auth API reachable
// before declaring the gateway ready.
type ReadinessHandler struct {
	store    ports.CredentialStore
	upstream Pinger
}

func NewReadinessHandler(store ports.CredentialStore, upstream Pinger) *ReadinessHandler {
	return &ReadinessHandler{store: store, upstream: upstream}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// --- Credential store readable (a malformed profile still proves the
	// backend is up) ---
	if _, err := h.store.Read(ctx); err != nil && !errors.Is(err, domain.ErrMalformedCredential) {
		deps["credential_store"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["credential_store"] = dependencyStatus{Status: "ok"}
	}

	// --- Upstream auth API reachable ---
	if err := h.upstream.Ping(ctx); err != nil {
		deps["upstream_api"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["upstream_api"] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
