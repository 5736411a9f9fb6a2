package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyBRL formats an amount the way the cash register shows it.
// Example: 1234.5 -> "R$ 1.234,50"
func FormatCurrencyBRL(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	integer, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	return sign + "R$ " + b.String() + "," + cents
}
