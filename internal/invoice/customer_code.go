package invoice

import (
	"fmt"
	"regexp"
	"strings"
)

// Customer code strategies accepted in configuration
const (
	CodeStrategyHeuristic = "heuristic"
	CodeStrategyStrict    = "strict"
)

var (
	customerCodePattern = regexp.MustCompile(`^10/\d{8}-\d$`)
	digitRun            = regexp.MustCompile(`\d+`)
	whitespace          = regexp.MustCompile(`\s+`)
)

// CodeNormalizer rewrites a raw customer code into the 10/########-# shape.
// ok is false when no code could be produced; the returned value is then "".
type CodeNormalizer interface {
	Normalize(raw string) (code string, ok bool)
}

// NewCodeNormalizer returns the normalizer for a configured strategy
func NewCodeNormalizer(strategy string) (CodeNormalizer, error) {
	switch strategy {
	case "", CodeStrategyHeuristic:
		return HeuristicCodeNormalizer{}, nil
	case CodeStrategyStrict:
		return StrictCodeNormalizer{}, nil
	}
	return nil, fmt.Errorf("unknown customer code strategy %q", strategy)
}

// IsCustomerCode reports whether s already has the canonical shape
func IsCustomerCode(s string) bool {
	return customerCodePattern.MatchString(s)
}

// StrictCodeNormalizer keeps only values that are already canonical.
type StrictCodeNormalizer struct{}

func (StrictCodeNormalizer) Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if IsCustomerCode(s) {
		return s, true
	}
	return "", false
}

// HeuristicCodeNormalizer rebuilds a code from fragmented digit groups such
// as "3352527-2025-9-6".
//
// Rules, applied in order:
//   - a canonical value (spaces ignored) is kept
//   - the body is the first digit run of at least six digits; a ten digit run
//     starting with "10" loses that prefix, a nine digit run carries its own
//     check digit in the last position
//   - the body is left padded with zeros to eight digits, or cut to its last eight
//   - the check digit is the last single-digit group after the body
//   - without such a group the check digit is the Luhn mod 10 digit of the body
type HeuristicCodeNormalizer struct{}

func (HeuristicCodeNormalizer) Normalize(raw string) (string, bool) {
	s := whitespace.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return "", false
	}
	if IsCustomerCode(s) {
		return s, true
	}

	runs := digitRun.FindAllString(s, -1)
	bodyIdx := -1
	for i, run := range runs {
		if len(run) >= 6 {
			bodyIdx = i
			break
		}
	}
	if bodyIdx == -1 {
		return "", false
	}

	body := runs[bodyIdx]
	check := ""
	switch {
	case len(body) == 10 && strings.HasPrefix(body, "10"):
		body = body[2:]
	case len(body) == 9:
		body, check = body[:8], body[8:]
	}

	for _, run := range runs[bodyIdx+1:] {
		if len(run) == 1 {
			check = run
		}
	}

	if len(body) < 8 {
		body = strings.Repeat("0", 8-len(body)) + body
	} else if len(body) > 8 {
		body = body[len(body)-8:]
	}
	if check == "" {
		check = luhnCheckDigit(body)
	}

	return "10/" + body + "-" + check, true
}

// luhnCheckDigit computes the mod 10 check digit for a string of digits
func luhnCheckDigit(digits string) string {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}
