package cors

import (
	"net/http"

	"golang.org/x/net/http/httpguts"
)

// Header is the name of a header that takes part in the CORS protocol.
// Values are spelled in canonical format (see [http.CanonicalHeaderKey]).
type Header string

// request headers
const (
	HeaderOrigin        Header = "Origin"
	HeaderRequestMethod Header = "Access-Control-Request-Method"
	HeaderRequestHeads  Header = "Access-Control-Request-Headers"
	HeaderRequestPNA    Header = "Access-Control-Request-Private-Network"
)

// response headers
const (
	HeaderAllowOrigin      Header = "Access-Control-Allow-Origin"
	HeaderAllowMethods     Header = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     Header = "Access-Control-Allow-Headers"
	HeaderAllowPNA         Header = "Access-Control-Allow-Private-Network"
	HeaderAllowCredentials Header = "Access-Control-Allow-Credentials"
	HeaderExposeHeaders    Header = "Access-Control-Expose-Headers"
	HeaderMaxAge           Header = "Access-Control-Max-Age"
)

const (
	valueTrue     = "true"
	valueWildcard = "*"
	valueMaxAge   = "300" // seconds
)

// String returns the header name.
func (h Header) String() string { return string(h) }

// Valid reports whether h is a legal header field name in canonical format.
func (h Header) Valid() bool {
	s := string(h)
	return httpguts.ValidHeaderFieldName(s) && http.CanonicalHeaderKey(s) == s
}

// Lookup returns the first value of h in hdrs and whether h is present at all.
// A header sent with an empty value is present.
func (h Header) Lookup(hdrs http.Header) (string, bool) {
	v, found := hdrs[string(h)]
	if !found || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h Header) set(hdrs http.Header, v string) {
	hdrs[string(h)] = []string{v}
}
