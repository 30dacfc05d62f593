package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"http error", http.MethodGet, echo.NewHTTPError(http.StatusBadRequest, "bad field"), http.StatusBadRequest, "bad field"},
		{"non-string message", http.MethodGet, echo.NewHTTPError(http.StatusConflict, 42), http.StatusConflict, "Conflict"},
		{"plain error", http.MethodGet, errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
		{"head request", http.MethodHead, echo.ErrNotFound, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(tt.method, "/x", http.NoBody), rec)

			ErrorHandler(discardLogger())(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMsg == "" {
				if rec.Body.Len() != 0 {
					t.Errorf("body = %q, want empty", rec.Body.String())
				}
				return
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", http.NoBody), rec)
	c.Response().WriteHeader(http.StatusOK)

	ErrorHandler(discardLogger())(errors.New("late"), c)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}
