// Package currency converts between dollar amounts and their integer cent
// representation. Amounts are stored and computed in cents everywhere; decimal
// values only appear at the parsing and display boundaries.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents is the largest storable amount: $9,999,999.99, keeping every
// value under the $10,000,000 ceiling.
const MaxCents int64 = 999_999_999

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ToCents converts a dollar amount to cents, rounding half away from zero at
// the cent boundary. 10.555 becomes 1056, 10.554 becomes 1055.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromFloat converts a float dollar amount to cents. The value goes through
// decimal's shortest-string conversion first, so binary representation error
// never reaches the rounding step.
func FromFloat(f float64) int64 {
	return ToCents(decimal.NewFromFloat(f))
}

// Parse reads a dollar amount from strings such as "$1,050.25" or "10.50".
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d, nil
}

// ParseCents reads a dollar amount from a string and returns cents.
func ParseCents(s string) (int64, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}

	return ToCents(d), nil
}

// ToDollars converts cents to an exact decimal dollar amount.
func ToDollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Validate checks that a cent amount is storable.
func Validate(cents int64) error {
	if cents < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	}

	if cents > MaxCents {
		return fmt.Errorf("%w: amount exceeds maximum limit", ErrInvalidAmount)
	}

	return nil
}

// ValidateDollars checks a dollar amount before conversion.
func ValidateDollars(d decimal.Decimal) error {
	return Validate(ToCents(d))
}

// Format renders cents as a currency string with two decimal places. The sign
// comes before the symbol: -$10.50, not $-10.50.
func Format(cents int64) string {
	d := ToDollars(cents)
	if cents < 0 {
		return "-$" + d.Abs().StringFixed(2)
	}

	return "$" + d.StringFixed(2)
}
