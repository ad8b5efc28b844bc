package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	moneyPrecision       = 2
	coefficientPrecision = 6
)

// RoundMoney rounds a monetary amount to 2 decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPrecision)
}

// RoundCoefficient rounds an index coefficient to 6 decimal places.
func RoundCoefficient(d decimal.Decimal) decimal.Decimal {
	return d.Round(coefficientPrecision)
}

// MinDecimal returns the smaller of two decimals.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the larger of two decimals.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// ParseArgentineDecimal parses a number written with Argentine separators.
// "1.234.567,89" → 1234567.89, "1234,56" → 1234.56, "1234.56" → 1234.56.
// Empty input parses as zero.
func ParseArgentineDecimal(value string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if s == "" {
		return decimal.Zero, nil
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	if hasComma && hasDot {
		// dot is thousands, comma is decimal
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if hasComma {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", value)
	}
	return d, nil
}

// FormatArgentine renders d with the given decimal places, dot as thousands
// separator and comma as decimal separator: 1234567.891 → "1.234.567,89".
func FormatArgentine(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if fracPart == "" {
		return sign + b.String()
	}
	return sign + b.String() + "," + fracPart
}
