// Package coord parses coordinate strings in decimal or
// degrees-minutes-seconds notation into signed decimal degrees.
package coord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wegman-software/csv2osm-go/internal/locale"
)

var (
	// ErrNoMatch means the input is neither a decimal number nor a DMS string
	ErrNoMatch = errors.New("not a decimal or DMS coordinate")
	// ErrAmbiguousHemisphere means a DMS string carries both a leading and a trailing marker
	ErrAmbiguousHemisphere = errors.New("both leading and trailing hemisphere markers present")
)

// ParseError reports a coordinate string that could not be parsed
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse coordinate %q: %v", e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Kind tells which notation a coordinate was parsed from
type Kind int

const (
	KindDecimal Kind = iota + 1
	KindDMS
)

func (k Kind) String() string {
	switch k {
	case KindDecimal:
		return "decimal"
	case KindDMS:
		return "dms"
	default:
		return "unknown"
	}
}

// Result is a successfully parsed coordinate
type Result struct {
	Value float64
	Kind  Kind
	DMS   *DMS // set when Kind is KindDMS
}

// Parse converts raw into decimal degrees. A locale decimal number is
// tried first and returned unmodified; otherwise raw must be a DMS string.
func Parse(raw string, sep locale.Separators) (Result, error) {
	v, decErr := ParseDecimal(raw, sep)
	if decErr == nil {
		return Result{Value: v, Kind: KindDecimal}, nil
	}

	dms, err := ParseDMS(raw, sep)
	if err != nil {
		return Result{}, &ParseError{Raw: raw, Err: err}
	}
	return Result{Value: dms.Degrees(), Kind: KindDMS, DMS: dms}, nil
}

// ParseValue is Parse returning only the value
func ParseValue(raw string, sep locale.Separators) (float64, error) {
	r, err := Parse(raw, sep)
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// ParseDecimal parses a number written with the locale's separators
func ParseDecimal(raw string, sep locale.Separators) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrNoMatch
	}

	s = sep.Delocalize(s)
	if !isDecimal(s) {
		return 0, ErrNoMatch
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// isDecimal reports whether s has the shape [+-]digits[.digits][e[+-]digits].
// Hex floats, underscores, inf and nan do not.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := func() int {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}

	n := digits()
	if i < len(s) && s[i] == '.' {
		i++
		n += digits()
	}
	if n == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() == 0 {
			return false
		}
	}
	return i == len(s)
}
