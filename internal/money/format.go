package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/shopspring/decimal"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a value as Brazilian currency, e.g. "R$ 1.234,56".
func FormatBRL(v decimal.Decimal) string {
	f, _ := Round(v).Float64()
	return brPrinter.Sprintf("R$ %.2f", f)
}
