package coords

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/star/skyframe/internal/sky"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("malformed coordinate")

// ParseError reports which field failed to parse and why.
type ParseError struct {
	Field  string // "ra" or "dec"
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ParseRA accepts "H:M:S", "H M S" (minutes and seconds optional) or a bare
// decimal number of degrees. The result is normalized into [0,360).
func ParseRA(s string) (float64, error) {
	in := strings.TrimSpace(s)
	fail := func(reason string) (float64, error) {
		return 0, &ParseError{Field: "ra", Input: s, Reason: reason}
	}
	if in == "" {
		return fail("empty")
	}

	if !isSexagesimal(in) {
		v, err := parseFinite(in)
		if err != nil {
			return fail(err.Error())
		}
		return sky.NormalizeRA(v), nil
	}

	h, m, sec, err := splitSexagesimal(in)
	if err != nil {
		return fail(err.Error())
	}
	if h >= 24 {
		return fail(fmt.Sprintf("hours must be below 24, got %v", h))
	}
	return sky.NormalizeRA((h + m/60 + sec/3600) * 15), nil
}

// ParseDec accepts "±D:M:S", "±D M S" or a bare decimal number of degrees.
// The sign comes from a leading '-' or '+'; none means north.
func ParseDec(s string) (float64, error) {
	in := strings.TrimSpace(s)
	fail := func(reason string) (float64, error) {
		return 0, &ParseError{Field: "dec", Input: s, Reason: reason}
	}
	if in == "" {
		return fail("empty")
	}

	var dec float64
	if !isSexagesimal(in) {
		v, err := parseFinite(in)
		if err != nil {
			return fail(err.Error())
		}
		dec = v
	} else {
		neg := false
		switch in[0] {
		case '-':
			neg = true
			in = in[1:]
		case '+':
			in = in[1:]
		}
		d, m, sec, err := splitSexagesimal(strings.TrimSpace(in))
		if err != nil {
			return fail(err.Error())
		}
		dec = d + m/60 + sec/3600
		if neg {
			dec = -dec
		}
	}

	if dec < -90 || dec > 90 {
		return fail(fmt.Sprintf("declination must be within ±90, got %v", dec))
	}
	return dec, nil
}

func isSexagesimal(s string) bool {
	return strings.ContainsAny(s, ": \t")
}

// splitSexagesimal reads up to three unsigned components. Only the last one
// may carry a fraction.
func splitSexagesimal(s string) (float64, float64, float64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
	if len(parts) == 0 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("expected 1 to 3 components, got %d", len(parts))
	}
	if strings.Count(s, ":") >= len(parts) {
		return 0, 0, 0, errors.New("empty component")
	}

	var vals [3]float64
	for i, p := range parts {
		if strings.ContainsAny(p, "+-") {
			return 0, 0, 0, fmt.Errorf("unexpected sign in component %q", p)
		}
		v, err := parseFinite(p)
		if err != nil {
			return 0, 0, 0, err
		}
		if i < len(parts)-1 && v != math.Trunc(v) {
			return 0, 0, 0, fmt.Errorf("component %q must be a whole number", p)
		}
		if i > 0 && v >= 60 {
			return 0, 0, 0, fmt.Errorf("component %q must be below 60", p)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
