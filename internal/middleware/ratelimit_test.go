package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"agent-gateway/internal/cors"
)

func TestRateLimiter_Enabled(t *testing.T) {
	e := echo.New()

	// 1 request per second with burst 1; the second request is rejected.
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(1))
	e.Use(echomw.RateLimiter(store))
	e.GET("/identifiers", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/identifiers", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	got429 := false
	for i := 0; i < 10; i++ {
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/identifiers", http.NoBody))
		if rec.Code == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Error("expected at least one 429 response after burst, got none")
	}
}

func TestRateLimiter_PreflightAnsweredFirst(t *testing.T) {
	// CORS sits before the limiter, so preflights never consume tokens.
	e := echo.New()
	e.Use(cors.New(cors.AllowAll{}).Echo())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(1))))
	e.GET("/identifiers", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/identifiers", http.NoBody)
		req.Header.Set("Origin", "https://wallet.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("preflight %d: status = %d, want %d", i, rec.Code, http.StatusNoContent)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/identifiers", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("first GET after preflights: status = %d, want %d", rec.Code, http.StatusOK)
	}
}
