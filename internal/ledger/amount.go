package ledger

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/theirongolddev/roomtally/internal/model"
)

// ParseAmount reads the longest leading decimal number in text, after
// leading whitespace, the way a lenient form field would: "12abc" is 12,
// ".5" is 0.5, "1e3x" is 1000. Anything without a numeric prefix, and any
// value that is not finite, counts as 0. Negative values pass through.
func ParseAmount(text string) float64 {
	s := strings.TrimLeftFunc(text, isLeadingSpace)
	prefix := numericPrefix(s)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v == 0 {
		return 0 // normalise -0
	}
	return v
}

// isLeadingSpace matches the whitespace and line terminators a form field's
// number parsing skips: unicode.IsSpace minus U+0085, plus the BOM.
func isLeadingSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// numericPrefix returns the longest prefix of s matching
// [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - intStart

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = j - i - 1
		if intDigits > 0 || fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}

	return strings.TrimSuffix(s[:i], ".")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ComputeTotal sums ParseAmount over every entry.
func ComputeTotal(b model.Budgets) float64 {
	var sum float64
	for _, e := range b.Entries() {
		sum += ParseAmount(e.Amount)
	}
	return sum
}
