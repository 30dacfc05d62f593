package cors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned by ParsePolicy when the configured origin
// pattern is not a valid regular expression.
var ErrInvalidPattern = errors.New("invalid origin pattern")

// Policy decides whether a cross-origin caller is allowed.
// Implementations are immutable and safe for concurrent use.
type Policy interface {
	Allows(origin string) bool
}

// AllowAll allows every origin.
type AllowAll struct{}

func (AllowAll) Allows(string) bool { return true }
func (AllowAll) String() string     { return "allow_all" }

// DenyAll rejects every origin.
type DenyAll struct{}

func (DenyAll) Allows(string) bool { return false }
func (DenyAll) String() string     { return "deny_all" }

// RegexPolicy allows origins matching a regular expression anchored at the
// start of the origin. The pattern only has to match a prefix of the origin
// unless it anchors the end itself.
type RegexPolicy struct {
	pattern string
	re      *regexp.Regexp
}

// NewRegexPolicy compiles pattern into a RegexPolicy.
func NewRegexPolicy(pattern string) (*RegexPolicy, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("cors: %w %q: %w", ErrInvalidPattern, pattern, err)
	}
	return &RegexPolicy{pattern: pattern, re: re}, nil
}

func (p *RegexPolicy) Allows(origin string) bool { return p.re.MatchString(origin) }
func (p *RegexPolicy) String() string            { return "regex" }

// Pattern returns the pattern as configured.
func (p *RegexPolicy) Pattern() string { return p.pattern }

// ParsePolicy turns the configured origins string into a Policy:
//
//   - "" , "true" or "1" allow every origin;
//   - "false" or "0" deny every origin;
//   - anything else is a regular expression matched from the start of the origin.
//
// The keywords are matched case-insensitively.
func ParsePolicy(cfg string) (Policy, error) {
	switch {
	case cfg == "", cfg == "1", strings.EqualFold(cfg, "true"):
		return AllowAll{}, nil
	case cfg == "0", strings.EqualFold(cfg, "false"):
		return DenyAll{}, nil
	}
	p, err := NewRegexPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Describe returns a short label for p, suitable for status output.
func Describe(p Policy) string {
	if p == nil {
		return AllowAll{}.String()
	}
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return "custom"
}
