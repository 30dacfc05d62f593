package request

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequiredParam_Present(t *testing.T) {
	body := map[string]any{"name": "x"}

	v, err := RequiredParam(body, "name")
	if err != nil {
		t.Fatalf("RequiredParam() error = %v", err)
	}
	if v != "x" {
		t.Errorf("RequiredParam() = %v, want %q", v, "x")
	}
	if len(body) != 1 {
		t.Errorf("body mutated: %v", body)
	}
}

func TestRequiredParam_NonStringValue(t *testing.T) {
	body := map[string]any{"count": float64(0), "ok": false}

	for _, name := range []string{"count", "ok"} {
		if _, err := RequiredParam(body, name); err != nil {
			t.Errorf("RequiredParam(%q) error = %v, want nil for zero value", name, err)
		}
	}
}

func TestRequiredParam_Missing(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty body", map[string]any{}},
		{"nil body", nil},
		{"explicit null", map[string]any{"name": nil}},
		{"other fields only", map[string]any{"passcode": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequiredParam(tt.body, "name")
			if err == nil {
				t.Fatal("RequiredParam() error = nil, want error")
			}

			var he *echo.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("error type = %T, want *echo.HTTPError", err)
			}
			if he.Code != http.StatusBadRequest {
				t.Errorf("Code = %d, want %d", he.Code, http.StatusBadRequest)
			}
			if msg, _ := he.Message.(string); msg != "required field 'name' missing from request" {
				t.Errorf("Message = %q, want it to name the field", msg)
			}
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("errors.Is(err, ErrMissingField) = false")
			}
		})
	}
}

func TestRequiredString(t *testing.T) {
	body := map[string]any{"name": "aid1", "count": float64(3)}

	s, err := RequiredString(body, "name")
	if err != nil {
		t.Fatalf("RequiredString(name) error = %v", err)
	}
	if s != "aid1" {
		t.Errorf("RequiredString(name) = %q, want %q", s, "aid1")
	}

	_, err = RequiredString(body, "count")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("RequiredString(count) error = %v, want 400", err)
	}

	_, err = RequiredString(body, "missing")
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("RequiredString(missing) error = %v, want ErrMissingField", err)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"malformed", `{"name":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/boot", strings.NewReader(tt.body))
			c := e.NewContext(req, httptest.NewRecorder())

			body, err := DecodeBody(c)
			if tt.wantErr {
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
					t.Errorf("DecodeBody() error = %v, want 400", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeBody() error = %v", err)
			}
			if body["name"] != "x" {
				t.Errorf("body[name] = %v, want %q", body["name"], "x")
			}
		})
	}
}
