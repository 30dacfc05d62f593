package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"agent-gateway/internal/model"
	"agent-gateway/internal/service"
)

// AgentPrefix is the gateway path under which the agent API is exposed.
const AgentPrefix = "/agent"

// ProxyHandler forwards requests under AgentPrefix to the agent backend
// without looking at them.
type ProxyHandler struct {
	service *service.AgentService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.AgentService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle strips AgentPrefix from the path and streams the agent's response back.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	path := strings.TrimPrefix(req.URL.Path, AgentPrefix)
	if path == "" {
		path = "/"
	}

	resp, err := h.service.Forward(&model.AgentRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Path:   path,
		Query:  req.URL.Query(),
		Header: req.Header,
		Body:   req.Body,
	})
	if err != nil {
		return mapError(c, h.logger, err)
	}
	return relay(c, h.logger, resp)
}

// relay copies an agent response to the client and closes its body.
// Headers already on the response, such as the CORS headers, are kept.
func relay(c echo.Context, logger *slog.Logger, resp *model.AgentResponse) error {
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}
	c.Response().WriteHeader(resp.StatusCode)

	// The status is already sent, so a failed copy can only be logged;
	// the client sees a truncated body.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		logger.Error("streaming response body",
			"err", err,
			"path", c.Request().URL.Path,
		)
	}
	return nil
}

func mapError(c echo.Context, logger *slog.Logger, err error) error {
	logger.Error("agent error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrInvalidBody) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body could not be forwarded",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "agent request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "agent host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "agent connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "agent request failed",
	})
}
