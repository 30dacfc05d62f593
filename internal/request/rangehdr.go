package request

import (
	"strconv"
	"strings"
)

// Range is an inclusive start/end pair requested through a Range-style header.
type Range struct {
	Start int
	End   int
}

// DefaultRange is used by handlers when the client does not ask for a range.
var DefaultRange = Range{Start: 0, End: 9}

// String renders r as a header value for the named unit, e.g. "aids=0-9".
func (r Range) String(name string) string {
	return name + "=" + strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// ParseRange parses a header of the form "name=START-END", "name=-END" or
// "name=START-". A missing bound takes its value from def. Any header that
// does not start with "name=" or does not parse yields def unchanged;
// a partially parsed result is never returned.
func ParseRange(header, name string, def Range) Range {
	spec, ok := strings.CutPrefix(header, name+"=")
	if !ok {
		return def
	}

	if end, ok := strings.CutPrefix(spec, "-"); ok {
		n, err := strconv.Atoi(end)
		if err != nil {
			return def
		}
		return Range{Start: def.Start, End: n}
	}

	if start, ok := strings.CutSuffix(spec, "-"); ok {
		n, err := strconv.Atoi(start)
		if err != nil {
			return def
		}
		return Range{Start: n, End: def.End}
	}

	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return def
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return def
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return def
	}
	return Range{Start: start, End: end}
}
