package model

import (
	"math"
	"strconv"
)

// FormatAmount renders a price as the two-decimal string the payment gateway
// expects in its amount field. Examples: 25 → "25.00", 9.99 → "9.99".
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// FormatTimestamp renders a unix-seconds timestamp for signing.
func FormatTimestamp(ts int64) string {
	if ts == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}

// Cents converts a decimal price to minor currency units.
// Used for totals comparison where float accumulation error is unacceptable.
// Examples: 99.00 → 9900, 9.99 → 999.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ParseAmount converts a decimal string amount back to a float, returning 0
// for empty or malformed input. Callback parameters arrive as strings.
func ParseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
