// Package core holds the finance data model and the small value helpers
// shared by every layer: calendar dates, periods and money formatting.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	// DefaultCurrency is used when a record carries no currency.
	DefaultCurrency = "RUB"

	maxFractionDigits = 2
	nbsp              = "\u00a0"
)

// currencySymbols lists the ru-RU display symbols. Codes missing here are
// displayed as the ISO code itself.
var currencySymbols = map[string]string{
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"UAH": "₴",
	"KZT": "₸",
	"BYN": "Br",
	"TRY": "₺",
	"INR": "₹",
}

// FormatMoney formats amount in the ru-RU currency style: grouped with
// non-breaking spaces, decimal comma, at most two fraction digits and the
// currency symbol after the number. Unknown currency codes and non-finite
// amounts fall back to "<amount with 2 decimals> <code>".
//
// Examples:
//
//	FormatMoney(1234.5, "RUB") -> "1 234,50 ₽"
//	FormatMoney(10, "XYZ")     -> "10.00 XYZ"
func FormatMoney(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fallbackMoney(amount, code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fallbackMoney(amount, code)
	}

	minDigits, _ := currency.Standard.Rounding(unit)
	if minDigits > maxFractionDigits {
		minDigits = maxFractionDigits
	}

	d := decimal.NewFromFloat(amount).Round(maxFractionDigits)
	// Negative amounts keep their sign even when they round to zero.
	neg := math.Signbit(amount)
	fixed := d.Abs().StringFixed(maxFractionDigits)

	intPart, frac, _ := strings.Cut(fixed, ".")
	for len(frac) > minDigits && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart))
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	b.WriteString(nbsp)
	b.WriteString(symbolFor(unit.String()))
	return b.String()
}

func symbolFor(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(nbsp)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func fallbackMoney(amount float64, code string) string {
	var num string
	switch {
	case math.IsNaN(amount):
		num = "NaN"
	case math.IsInf(amount, 1):
		num = "Infinity"
	case math.IsInf(amount, -1):
		num = "-Infinity"
	default:
		num = strconv.FormatFloat(amount, 'f', 2, 64)
	}
	return num + " " + code
}
