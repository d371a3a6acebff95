// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDateLayout matches the dd-MMM-yy dates found in exported price files.
const DefaultDateLayout = "02-Jan-06"

// MinorToDecimal converts an amount in minor units to major units, e.g.
// 12345 cents at scale 2 is 123.45.
func MinorToDecimal(value int64, scale int32) decimal.Decimal {
	return decimal.New(value, -scale)
}

// FormatMinor formats an amount in minor units with exactly scale decimals.
func FormatMinor(value int64, scale int32) string {
	return MinorToDecimal(value, scale).StringFixed(scale)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// FormatDate formats a trading date using layout, falling back to
// DefaultDateLayout.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// FormatDays formats a count of trading days.
func FormatDays(n int) string {
	if n == 1 {
		return "1 trading day"
	}
	return fmt.Sprintf("%d trading days", n)
}
