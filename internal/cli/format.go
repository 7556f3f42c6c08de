// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is shown when no currency label is configured.
const DefaultCurrency = "MVR"

// FormatAmount formats a money value with thousands separators and two
// decimals, prefixed by the currency label.
// e.g., (1234.5, "MVR") -> "MVR 1,234.50"
func FormatAmount(v float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return currency + " " + FormatMoney(v)
}

// FormatMoney formats v as "1,234.50" without a currency label.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	s := FormatNumber(cents/100) + fmt.Sprintf(".%02d", cents%100)
	if neg && cents != 0 {
		return "-" + s
	}
	return s
}

// FormatCompact formats a value with K/M suffixes for narrow cells.
// e.g., 950 -> "950", 12500 -> "12.5K", 3400000 -> "3.4M"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	case v == math.Trunc(v):
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDelta formats the change from previous to current with a sign.
func FormatDelta(current, previous float64, currency string) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatAmount(delta, currency)
	}
	return "-" + FormatAmount(-delta, currency)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
