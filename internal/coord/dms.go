package coord

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wegman-software/csv2osm-go/internal/locale"
)

// DMS is a parsed degrees-minutes-seconds value
type DMS struct {
	Deg      int
	Min      int
	Sec      float64
	Leading  rune // hemisphere/sign marker before the degrees, 0 if absent
	Trailing rune // hemisphere marker after the seconds, 0 if absent
	Sign     int  // resolved sign, 1 or -1
}

// Degrees returns the signed decimal value
func (d *DMS) Degrees() float64 {
	return float64(d.Sign) * (float64(d.Deg) + float64(d.Min)/60 + d.Sec/3600)
}

func (d *DMS) String() string {
	hemi := ""
	if d.Sign < 0 {
		hemi = "-"
	}
	return fmt.Sprintf("%s%d°%d'%s\"", hemi, d.Deg, d.Min, strconv.FormatFloat(d.Sec, 'f', -1, 64))
}

// ParseDMS parses strings such as `23°30'0"S`, `S 23º30’15,5”`,
// `46 deg 10 30 N` or `-46°10'30"`. Seconds use the locale's decimal
// separator; '.' and ',' are both accepted as characters of the field.
func ParseDMS(raw string, sep locale.Separators) (*DMS, error) {
	s := &scanner{src: []rune(raw), sep: sep}
	d := &DMS{}

	s.skipSpace()
	d.Leading = s.marker(isLeadingMarker)
	s.skipSpace()

	degrees, ok := s.integer()
	if !ok || !s.degreeSymbol() {
		return nil, ErrNoMatch
	}
	s.skipSpace()

	minutes, ok := s.integer()
	if !ok || !s.minuteSymbol() {
		return nil, ErrNoMatch
	}
	s.skipSpace()

	secText := s.secondsField()
	if secText == "" {
		return nil, ErrNoMatch
	}
	seconds, err := ParseDecimal(secText, sep)
	if err != nil {
		return nil, ErrNoMatch
	}
	s.secondsSymbol()
	s.skipSpace()

	d.Trailing = s.marker(isTrailingMarker)
	s.skipSpace()
	if !s.done() {
		return nil, ErrNoMatch
	}

	d.Deg, d.Min, d.Sec = degrees, minutes, seconds
	sign, err := resolveSign(d.Leading, d.Trailing)
	if err != nil {
		return nil, err
	}
	d.Sign = sign
	return d, nil
}

// resolveSign applies the hemisphere rules: one marker decides the sign,
// no marker is positive, two markers are rejected.
func resolveSign(leading, trailing rune) (int, error) {
	marker := leading
	switch {
	case leading != 0 && trailing != 0:
		return 0, ErrAmbiguousHemisphere
	case trailing != 0:
		marker = trailing
	case leading == 0:
		return 1, nil
	}

	switch marker {
	case 'S', 'W', '-':
		return -1, nil
	default:
		return 1, nil
	}
}

func isLeadingMarker(r rune) bool {
	switch r {
	case '+', '-', 'N', 'S', 'E', 'W':
		return true
	}
	return false
}

func isTrailingMarker(r rune) bool {
	switch r {
	case 'N', 'S', 'E', 'W':
		return true
	}
	return false
}

// scanner walks the DMS grammar one rune at a time
type scanner struct {
	src []rune
	pos int
	sep locale.Separators
}

func (s *scanner) done() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() rune {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for !s.done() && unicode.IsSpace(s.peek()) {
		s.pos++
	}
}

func (s *scanner) marker(accept func(rune) bool) rune {
	r := s.peek()
	if r != 0 && accept(r) {
		s.pos++
		return r
	}
	return 0
}

// integer reads a run of ASCII digits
func (s *scanner) integer() (int, bool) {
	start := s.pos
	for !s.done() && isDigit(s.peek()) {
		s.pos++
	}
	if s.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(string(s.src[start:s.pos]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// degreeSymbol accepts '°', 'º' or the word "deg", optionally preceded by spaces
func (s *scanner) degreeSymbol() bool {
	switch s.peek() {
	case '°', 'º':
		s.pos++
		return true
	}

	save := s.pos
	s.skipSpace()
	if strings.HasPrefix(string(s.src[s.pos:]), "deg") {
		s.pos += len("deg")
		return true
	}
	s.pos = save
	return false
}

// minuteSymbol accepts an apostrophe, a right single quote, a prime or a bare space
func (s *scanner) minuteSymbol() bool {
	switch r := s.peek(); {
	case r == '\'' || r == '’' || r == '′':
		s.pos++
		return true
	case r != 0 && unicode.IsSpace(r):
		s.pos++
		return true
	}
	return false
}

// secondsField reads the seconds number: a digit followed by digits and separators
func (s *scanner) secondsField() string {
	if !isDigit(s.peek()) {
		return ""
	}
	start := s.pos
	for !s.done() {
		r := s.peek()
		if !isDigit(r) && r != '.' && r != ',' && r != s.sep.Decimal {
			break
		}
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// secondsSymbol consumes an optional straight or curly double quote
func (s *scanner) secondsSymbol() {
	switch s.peek() {
	case '"', '”', '″':
		s.pos++
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
