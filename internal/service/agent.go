// Package service implements forwarding of gateway requests to the agent backend.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"

	"agent-gateway/internal/client"
	"agent-gateway/internal/config"
	"agent-gateway/internal/model"
	"agent-gateway/internal/request"
)

// ErrInvalidBody is returned when a request body cannot be re-encoded for the agent.
var ErrInvalidBody = errors.New("invalid request body")

// IdentifiersUnit is the Range unit the agent uses for identifier listings.
const IdentifiersUnit = "aids"

// forwardableRequestHeaders are the request headers sent on to the agent,
// in addition to any Signify-* header.
var forwardableRequestHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Accept-Language",
	"Content-Type",
	"Range",
	"Signature",
	"Signature-Input",
}

// forwardableResponseHeaders are the agent response headers relayed to the
// caller, in addition to any Signify-* header. CORS headers are never
// relayed; the gateway owns them.
var forwardableResponseHeaders = map[string]bool{
	"Accept-Ranges":    true,
	"Cache-Control":    true,
	"Content-Encoding": true,
	"Content-Length":   true,
	"Content-Range":    true,
	"Content-Type":     true,
	"Date":             true,
	"Location":         true,
	"Signature":        true,
	"Signature-Input":  true,
}

const (
	userAgent     = "agent-gateway/1.0"
	signifyPrefix = "Signify-"
)

// AgentService forwards requests to the agent backend.
type AgentService struct {
	client  *client.AgentClient
	logger  *slog.Logger
	baseURL *url.URL
}

// NewAgentService creates an AgentService for cfg.Agent.BaseURL.
func NewAgentService(c *client.AgentClient, cfg *config.Config, logger *slog.Logger) (*AgentService, error) {
	u, err := url.Parse(cfg.Agent.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse agent base_url: %w", err)
	}
	return &AgentService{
		client:  c,
		logger:  logger.With("component", "agent_service"),
		baseURL: u,
	}, nil
}

// Forward sends ar to the agent and returns the filtered response.
// The caller must close the response body.
func (s *AgentService) Forward(ar *model.AgentRequest) (*model.AgentResponse, error) {
	target := s.buildURL(ar.Path, ar.Query)
	header := filterRequestHeaders(ar.Header)

	s.logger.Debug("forwarding request",
		"method", ar.Method,
		"path", ar.Path,
	)

	resp, err := s.client.Send(ar.Ctx, ar.Method, target, header, ar.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to agent: %w", err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// Boot posts body to the agent's /boot endpoint as JSON.
func (s *AgentService) Boot(ctx context.Context, header http.Header, body map[string]any) (*model.AgentResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	h := header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Content-Type", "application/json")

	return s.Forward(&model.AgentRequest{
		Ctx:    ctx,
		Method: http.MethodPost,
		Path:   "/boot",
		Header: h,
		Body:   bytes.NewReader(data),
	})
}

// ListIdentifiers asks the agent for the identifiers in rng.
// The Range header is always sent in normalized form.
func (s *AgentService) ListIdentifiers(ctx context.Context, header http.Header, query url.Values, rng request.Range) (*model.AgentResponse, error) {
	h := header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Range", rng.String(IdentifiersUnit))

	return s.Forward(&model.AgentRequest{
		Ctx:    ctx,
		Method: http.MethodGet,
		Path:   "/identifiers",
		Query:  query,
		Header: h,
	})
}

// BaseURL returns the agent base URL.
func (s *AgentService) BaseURL() string {
	return s.baseURL.String()
}

func (s *AgentService) buildURL(path string, query url.Values) string {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = query.Encode()
	return u.String()
}

func isSignify(key string) bool {
	return len(key) > len(signifyPrefix) && strings.EqualFold(key[:len(signifyPrefix)], signifyPrefix)
}

func filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for _, key := range forwardableRequestHeaders {
		if vals := src.Values(key); len(vals) > 0 {
			dst[key] = vals
		}
	}
	for key, vals := range src {
		if isSignify(key) && httpguts.ValidHeaderFieldName(key) {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}
	dst.Set("User-Agent", userAgent)
	return dst
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		ck := http.CanonicalHeaderKey(key)
		if forwardableResponseHeaders[ck] || isSignify(ck) {
			dst[ck] = vals
		}
	}
	return dst
}
