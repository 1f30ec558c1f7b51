// Package money holds amount parsing and display helpers shared by the
// wallet client. Amounts are NGN major units carried as decimals.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotAnAmount indicates the input does not read as a plain decimal number.
var ErrNotAnAmount = errors.New("not a valid amount")

// Strip removes thousands separators from a formatted amount.
func Strip(formatted string) string {
	return strings.ReplaceAll(formatted, ",", "")
}

// Parse converts user input into a decimal amount. Thousands separators and
// surrounding whitespace are tolerated; anything else besides digits and a
// single decimal point is rejected.
func Parse(input string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(Strip(input))
	if cleaned == "" {
		return decimal.Zero, ErrNotAnAmount
	}

	digits := 0
	dots := 0
	for _, r := range cleaned {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return decimal.Zero, ErrNotAnAmount
		}
	}
	if digits == 0 || dots > 1 {
		return decimal.Zero, ErrNotAnAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrNotAnAmount
	}
	return d, nil
}

// Format renders an amount for display: thousands separators on the whole
// part, decimals truncated to two places. Invalid characters are dropped
// rather than reported, matching input-field behavior.
func Format(value string) string {
	if value == "" {
		return ""
	}

	var cleaned strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			cleaned.WriteRune(r)
		}
	}

	parts := strings.SplitN(cleaned.String(), ".", 3)
	whole := parts[0]
	frac := ""
	if len(parts) > 1 {
		frac = parts[1]
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}

	formatted := ""
	if whole != "" {
		formatted = group(strings.TrimLeft(whole, "0"))
		if formatted == "" {
			formatted = "0"
		}
	}
	if frac != "" {
		formatted += "." + frac
	}
	return formatted
}

// FormatDecimal renders a decimal with thousands separators for messages
// and balance display.
func FormatDecimal(d decimal.Decimal) string {
	s := d.String()
	whole, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	out := group(whole)
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func group(digits string) string {
	if digits == "" {
		return ""
	}
	n := len(digits)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
