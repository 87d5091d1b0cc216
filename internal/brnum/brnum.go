// Package brnum parses and formats numbers written the Brazilian way
// ("1.234,56"), backed by exact decimals.
package brnum

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumeric = regexp.MustCompile(`[^\d,.\-]`)
	digits     = regexp.MustCompile(`\d`)
	tokens     = regexp.MustCompile(`-?\d[\d.,]*-?`)
)

// Parse reads free-form numeric text. Currency symbols, units and spaces are
// ignored. A comma is the decimal separator when present; a lone period is
// treated as a decimal point unless it looks like a thousands separator.
func Parse(text string) (decimal.Decimal, bool) {
	s := nonNumeric.ReplaceAllString(strings.TrimSpace(text), "")
	if !digits.MatchString(s) {
		return decimal.Zero, false
	}

	negative := strings.Contains(s, "-")
	s = strings.ReplaceAll(s, "-", "")

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") == 1:
		idx := strings.Index(s, ".")
		intPart, frac := s[:idx], s[idx+1:]
		if len(frac) == 3 && intPart != "" && strings.TrimLeft(intPart, "0") != "" {
			s = intPart + frac
		}
	default:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseAll returns every number found in text, in order of appearance.
func ParseAll(text string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, tok := range tokens.FindAllString(text, -1) {
		tok = strings.TrimRight(tok, ".,")
		if d, ok := Parse(tok); ok {
			out = append(out, d)
		}
	}
	return out
}

// Format renders d with a fixed number of places and a comma separator,
// without thousands grouping: 1234.5 -> "1234,50".
func Format(d decimal.Decimal, places int32) string {
	return strings.Replace(d.StringFixed(places), ".", ",", 1)
}

// FormatExact renders d with the places it already carries:
// 1.099590 -> "1,099590", 1e3 -> "1000".
func FormatExact(d decimal.Decimal) string {
	var places int32
	if exp := d.Exponent(); exp < 0 {
		places = -exp
	}
	return Format(d, places)
}

// FormatGrouped renders d with period thousands grouping: 1234.5 -> "1.234,50".
func FormatGrouped(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	intPart, frac := fixed, ""
	if idx := strings.Index(fixed, "."); idx >= 0 {
		intPart, frac = fixed[:idx], fixed[idx+1:]
	}

	var b strings.Builder
	if d.Round(places).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// Currency renders d as Brazilian reais: "R$ 1.234,56".
func Currency(d decimal.Decimal) string {
	return "R$ " + FormatGrouped(d, 2)
}
