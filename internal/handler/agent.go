package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"agent-gateway/internal/request"
	"agent-gateway/internal/service"
)

// AgentHandler serves the gateway endpoints that inspect the request before
// passing it to the agent.
type AgentHandler struct {
	service *service.AgentService
	logger  *slog.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(svc *service.AgentService, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		service: svc,
		logger:  logger.With("component", "agent_handler"),
	}
}

// Boot validates a boot request and forwards it to the agent.
// The body must be a JSON object carrying "name" and "passcode".
func (h *AgentHandler) Boot(c echo.Context) error {
	body, err := request.DecodeBody(c)
	if err != nil {
		return err
	}
	name, err := request.RequiredString(body, "name")
	if err != nil {
		return err
	}
	if _, err := request.RequiredString(body, "passcode"); err != nil {
		return err
	}

	h.logger.Info("boot requested", "name", name)

	req := c.Request()
	resp, err := h.service.Boot(req.Context(), req.Header, body)
	if err != nil {
		return mapError(c, h.logger, err)
	}
	return relay(c, h.logger, resp)
}

// Identifiers lists the agent's identifiers for the window in the
// "Range: aids=START-END" header, 0-9 when absent or malformed.
func (h *AgentHandler) Identifiers(c echo.Context) error {
	req := c.Request()
	rng := request.ParseRange(req.Header.Get("Range"), service.IdentifiersUnit, request.DefaultRange)

	resp, err := h.service.ListIdentifiers(req.Context(), req.Header, req.URL.Query(), rng)
	if err != nil {
		return mapError(c, h.logger, err)
	}
	return relay(c, h.logger, resp)
}
