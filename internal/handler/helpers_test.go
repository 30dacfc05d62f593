package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"agent-gateway/internal/client"
	"agent-gateway/internal/config"
	"agent-gateway/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(agentURL string) *config.Config {
	return &config.Config{
		Agent: config.AgentConfig{
			Name:            "test-agent",
			BaseURL:         agentURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
}

func newTestService(t *testing.T, cfg *config.Config) *service.AgentService {
	t.Helper()
	logger := discardLogger()
	svc, err := service.NewAgentService(client.NewAgentClient(cfg, logger, nil), cfg, logger)
	if err != nil {
		t.Fatalf("NewAgentService: %v", err)
	}
	return svc
}

// newAgent starts a fake agent backend that answers every request with fn.
func newAgent(t *testing.T, fn http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return srv
}
