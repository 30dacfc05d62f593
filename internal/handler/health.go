package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agent-gateway/internal/config"
	"agent-gateway/internal/cors"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves liveness and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
	policy  cors.Policy
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version, policy cors.Policy) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v, policy: policy}
}

// Healthz answers liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports the gateway version, the agent it fronts and the active
// CORS policy kind. The policy pattern itself is not disclosed.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"version":     string(h.version),
		"agent":       h.cfg.Agent.Name,
		"agent_url":   h.cfg.Agent.BaseURL,
		"cors_policy": cors.Describe(h.policy),
	})
}
