// Package client provides the HTTP client the gateway uses to reach the agent backend.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"agent-gateway/internal/config"
	"agent-gateway/internal/metrics"
	"agent-gateway/internal/model"
)

// AgentClient sends requests to the agent backend over a pooled transport.
type AgentClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewAgentClient creates an AgentClient. m may be nil to disable metrics.
func NewAgentClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *AgentClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Agent.IdleConnections,
		MaxIdleConnsPerHost: cfg.Agent.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &AgentClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
			// Redirects from the agent are relayed to the caller as-is.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "agent_client"),
		metrics: m,
	}
}

// Do executes req and returns the agent's response.
// The caller must close the response body.
func (c *AgentClient) Do(req *http.Request) (*model.AgentResponse, error) {
	c.logger.Debug("agent request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	method := metrics.NormalizeMethod(req.Method)
	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // closed by the caller via AgentResponse
	if c.metrics != nil {
		c.metrics.AgentDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	if c.metrics != nil {
		c.metrics.AgentResponses.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.AgentResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Send builds a request bound to ctx and executes it. Canceling ctx, for
// example when the gateway's caller disconnects, aborts the agent call.
func (c *AgentClient) Send(ctx context.Context, method, url string, header http.Header, body io.Reader) (*model.AgentResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header = header

	return c.Do(req)
}
