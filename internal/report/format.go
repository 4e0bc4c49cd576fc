package report

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders v with two decimals and thousands grouping,
// e.g. 1234.5 as "1,234.50". The currency symbol is not included.
func FormatCurrency(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatCount renders n with thousands grouping.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// Comparison is how a regional mean relates to the national mean.
type Comparison string

const (
	LessThan    Comparison = "less than"
	GreaterThan Comparison = "greater than"
)

// Compare returns the absolute gap between the national and regional
// means (each rounded to cents) and whether the region sits below or
// above the national figure. A zero gap reads as "greater than".
func Compare(national, regional float64) (float64, Comparison) {
	diff := round2(round2(national) - round2(regional))
	if diff > 0 {
		return diff, LessThan
	}
	return math.Abs(diff), GreaterThan
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
