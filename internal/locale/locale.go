// Package locale resolves numeric-locale conventions (decimal and digit
// grouping separators) from POSIX or BCP 47 locale names.
package locale

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Separators describes how a locale writes decimal numbers
type Separators struct {
	Decimal  rune
	Grouping rune // 0 when digits are not grouped
}

// C is the POSIX numeric locale: '.' decimal point, no grouping
var C = Separators{Decimal: '.'}

// Samples formatted in the target locale to read its separators back
const (
	fractionSample = 0.5
	groupingSample = 1234567
)

// Parse resolves a locale name such as "pt_BR.UTF-8", "de-DE" or "C".
// An empty name is the C locale.
func Parse(name string) (Separators, error) {
	name = strings.TrimSpace(name)
	normalized := normalizeName(name)
	switch normalized {
	case "", "C", "POSIX":
		return C, nil
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		return Separators{}, fmt.Errorf("unknown locale %q: %w", name, err)
	}
	return ForTag(tag), nil
}

// ForTag returns the separators CLDR defines for a language tag
func ForTag(tag language.Tag) Separators {
	p := message.NewPrinter(tag)
	return fromFormatted(
		p.Sprint(number.Decimal(fractionSample)),
		p.Sprint(number.Decimal(groupingSample)),
	)
}

// normalizeName turns "pt_BR.UTF-8@euro" into "pt-BR"
func normalizeName(name string) string {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(name, "_", "-")
}

// fromFormatted reads the separators out of the formatted samples: the
// first non-digit rune of each.
func fromFormatted(fraction, grouped string) Separators {
	sep := C
	if r, ok := firstNonDigit(fraction); ok {
		sep.Decimal = r
	}
	if r, ok := firstNonDigit(grouped); ok && r != sep.Decimal {
		sep.Grouping = r
	}
	return sep
}

func firstNonDigit(s string) (rune, bool) {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return r, true
		}
	}
	return 0, false
}

// IsGrouping reports whether r is the grouping separator. Locales that
// group with a space accept any Unicode space as grouping.
func (s Separators) IsGrouping(r rune) bool {
	if s.Grouping == 0 {
		return false
	}
	if r == s.Grouping {
		return true
	}
	return unicode.IsSpace(s.Grouping) && unicode.IsSpace(r)
}

// Delocalize rewrites a number written in this locale into the form
// strconv.ParseFloat accepts. Grouping separators are dropped and the
// decimal separator becomes '.'.
func (s Separators) Delocalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case s.IsGrouping(r):
		case r == s.Decimal:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s Separators) String() string {
	if s.Grouping == 0 {
		return fmt.Sprintf("decimal=%q", s.Decimal)
	}
	return fmt.Sprintf("decimal=%q grouping=%q", s.Decimal, s.Grouping)
}
