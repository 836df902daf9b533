package feed

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amountPrinter renders amounts with digit grouping ("5,000").
var amountPrinter = message.NewPrinter(language.English)

// formatAmount formats a base-currency amount with grouped digits.
// Whole amounts drop the fraction; fractional amounts keep two places.
func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return amountPrinter.Sprintf("%.0f", v)
	}
	return amountPrinter.Sprintf("%.2f", v)
}
