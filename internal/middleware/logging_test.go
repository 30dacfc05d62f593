package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(newJSONLogger(&buf)))
	e.GET("/status", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/status", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://wallet.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	entry := decodeLine(t, &buf)
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["path"] != "/status" {
		t.Errorf("path = %v, want /status", entry["path"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["origin"] != "https://wallet.example" {
		t.Errorf("origin = %v, want https://wallet.example", entry["origin"])
	}
}

func TestRequestLogger_HTTPErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(newJSONLogger(&buf)))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "agent unavailable")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", http.NoBody)
	e.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLine(t, &buf)
	if entry["status"] != float64(http.StatusBadGateway) {
		t.Errorf("status = %v, want 502", entry["status"])
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
}

func TestRequestLogger_PlainErrorIs500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(newJSONLogger(&buf)))
	e.GET("/boom", func(c echo.Context) error {
		return http.ErrHandlerTimeout
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if entry := decodeLine(t, &buf); entry["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("status = %v, want 500", entry["status"])
	}
}
