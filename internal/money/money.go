// Package money formats catalog prices for display. Prices are stored as
// whole roubles; formatting is presentation only and never feeds back into
// arithmetic.
package money

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Russian)

// FormatRoubles renders a whole-rouble amount with the currency symbol and
// locale-appropriate digit grouping, e.g. 12500 -> "12 500 ₽". The amount
// is formatted as an integer; kopeck decimals never appear.
func FormatRoubles(amount int64) string {
	return printer.Sprintf("%d %v", amount, currency.NarrowSymbol(currency.RUB))
}
