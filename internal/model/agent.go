// Package model defines the request and response types passed between the
// gateway's handler, service and client layers.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// AgentRequest is a request bound for the agent backend. Path is the path
// on the agent, not on the gateway.
type AgentRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.Reader
}

// AgentResponse is the agent's reply. The receiver must close Body.
type AgentResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
