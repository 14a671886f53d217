// Package money normalises catalog price text into integer minor units.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Paise is an amount in minor units (1/100 of a rupee).
type Paise int64

const (
	currencySymbol = "₹"
	minorDigits    = 2
)

var hundred = decimal.NewFromInt(100)

// ParsePrice keeps only digits and '.', parses the rest as a decimal and
// rounds half-up to two places. Input that does not parse yields 0.
func ParsePrice(text string) Paise {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return Paise(amount.Round(minorDigits).Mul(hundred).IntPart())
}

func (p Paise) Mul(quantity int) Paise {
	return p * Paise(quantity)
}

func (p Paise) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -minorDigits)
}

// String renders the amount for display, e.g. ₹1,250.00.
func (p Paise) String() string {
	value := int64(p)
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	fixed := Paise(value).Decimal().StringFixed(minorDigits)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + currencySymbol + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
