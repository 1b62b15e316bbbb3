// Package money normalises monetary input to fixed two-decimal values.
//
// All amounts in the simulator are Brazilian reais. Text input follows the
// pt-BR convention: "." separates thousands and "," separates cents
// ("1.234,56"). Plain machine-formatted numbers ("1234.56") are accepted
// too. Every value is quantised to 2 decimal places with half-up rounding;
// bankers' rounding would drift from the legal reference amounts.
package money

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput reports monetary text that cannot be parsed as a number.
var ErrInvalidInput = errors.New("money: invalid monetary input")

// Round quantises v to 2 decimal places, rounding half up.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// dotGrouped matches pt-BR integers written with thousands dots and no
// decimal comma, e.g. "1.234" or "1.234.567".
var dotGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// Parse converts free-form monetary text into a rounded decimal.
//
// The string form is interpreted as pt-BR when it contains a comma:
// thousands dots are stripped and the comma becomes the decimal point.
// Comma-less text with dots in thousands positions ("1.234") is read as
// a dot-grouped integer; anything else is read as a plain number.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidInput
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidInput
	}
	return Round(v), nil
}

// FromFloat converts a float amount into a rounded decimal.
func FromFloat(f float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(f))
}
