// Package cors implements the gateway's Cross-Origin Resource Sharing layer:
// an origin policy parsed from configuration and a middleware that negotiates
// the CORS response headers before any route handler runs.
//
// The middleware reflects the request origin rather than using "*", echoes
// the requested method and headers, and never allows credentialed requests.
package cors

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"agent-gateway/internal/metrics"
)

// Outcome classifies how the middleware treated a request.
type Outcome int

const (
	// NotCORS: no Origin header; nothing is written.
	NotCORS Outcome = iota
	// Denied: the policy rejected the origin; nothing is written but the
	// handler still runs.
	Denied
	// Allowed: CORS headers are applied and the handler runs.
	Allowed
	// Preflight: CORS headers are applied and the request ends with 204.
	Preflight
)

func (o Outcome) String() string {
	switch o {
	case NotCORS:
		return "not_cors"
	case Denied:
		return "denied"
	case Allowed:
		return "allowed"
	case Preflight:
		return "preflight"
	}
	return "unknown"
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome Outcome
	// Headers holds the response headers to apply. It is nil unless
	// Outcome is Allowed or Preflight.
	Headers http.Header
}

// ShortCircuit reports whether the request must end here with
// 204 No Content instead of reaching the handler.
func (d Decision) ShortCircuit() bool { return d.Outcome == Preflight }

// Apply writes the decision's headers onto dst, replacing existing values,
// and removes Access-Control-Allow-Credentials. It is a no-op for
// NotCORS and Denied decisions.
func (d Decision) Apply(dst http.Header) {
	if d.Outcome != Allowed && d.Outcome != Preflight {
		return
	}
	for k, v := range d.Headers {
		dst[k] = v
	}
	dst.Del(string(HeaderAllowCredentials))
}

// Middleware negotiates CORS headers for every request it sees.
// It holds no mutable state and is safe for concurrent use.
type Middleware struct {
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for denied origins.
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) { m.logger = l.With("component", "cors") }
}

// WithMetrics records every decision in m.CORSDecisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) { mw.metrics = m }
}

// New creates a Middleware enforcing policy. A nil policy allows every origin.
func New(policy Policy, opts ...Option) *Middleware {
	m := &Middleware{policy: policy}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Decide evaluates a request with the given method and headers.
// It never mutates reqHdrs.
func (m *Middleware) Decide(method string, reqHdrs http.Header) Decision {
	origin, ok := HeaderOrigin.Lookup(reqHdrs)
	if !ok {
		return Decision{Outcome: NotCORS}
	}
	if m.policy != nil && !m.policy.Allows(origin) {
		return Decision{Outcome: Denied}
	}

	hdrs := make(http.Header, 6)
	HeaderAllowOrigin.set(hdrs, origin)

	acrm, preflight := HeaderRequestMethod.Lookup(reqHdrs)
	if preflight {
		HeaderAllowMethods.set(hdrs, acrm)
	}
	if acrh, ok := HeaderRequestHeads.Lookup(reqHdrs); ok {
		HeaderAllowHeaders.set(hdrs, acrh)
	}
	if pna, _ := HeaderRequestPNA.Lookup(reqHdrs); pna == valueTrue {
		HeaderAllowPNA.set(hdrs, valueTrue)
	}
	HeaderExposeHeaders.set(hdrs, valueWildcard)
	HeaderMaxAge.set(hdrs, valueMaxAge)

	if method == http.MethodOptions && preflight {
		return Decision{Outcome: Preflight, Headers: hdrs}
	}
	return Decision{Outcome: Allowed, Headers: hdrs}
}

func (m *Middleware) evaluate(r *http.Request) Decision {
	d := m.Decide(r.Method, r.Header)
	if m.metrics != nil {
		m.metrics.CORSDecisions.WithLabelValues(d.Outcome.String()).Inc()
	}
	if d.Outcome == Denied && m.logger != nil {
		origin, _ := HeaderOrigin.Lookup(r.Header)
		m.logger.Debug("origin not allowed", "origin", origin, "path", r.URL.Path)
	}
	return d
}

// Echo returns the middleware as an Echo middleware. Preflight requests are
// answered with 204 and never reach the next handler.
func (m *Middleware) Echo() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := m.evaluate(c.Request())
			d.Apply(c.Response().Header())
			if d.ShortCircuit() {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// Wrap applies the middleware to a plain http.Handler.
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := m.evaluate(r)
		d.Apply(w.Header())
		if d.ShortCircuit() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
