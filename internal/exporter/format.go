package exporter

import (
	"strconv"
)

// formatFloat formats a monetary value with exactly 2 decimal places.
// Grouping separators are left out so the value stays machine readable.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats a count for CSV output.
func formatInt(i int) string {
	return strconv.Itoa(i)
}
