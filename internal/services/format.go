package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

var currencyUnits = []struct {
	scale  decimal.Decimal
	suffix string
}{
	{decimal.NewFromInt(1), ""},
	{decimal.NewFromInt(1_000), "K"},
	{decimal.NewFromInt(1_000_000), "M"},
	{decimal.NewFromInt(1_000_000_000), "B"},
}

var thousand = decimal.NewFromInt(1_000)

// FormatCurrency renders compact dollar amounts such as "$1.23M".
// A mantissa that rounds up to 1000 moves to the next unit.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	d := decimal.NewFromFloat(v)
	i := 0
	for i < len(currencyUnits)-1 && d.GreaterThanOrEqual(currencyUnits[i+1].scale) {
		i++
	}
	m := d.Div(currencyUnits[i].scale).Round(2)
	if i < len(currencyUnits)-1 && m.GreaterThanOrEqual(thousand) {
		i++
		m = d.Div(currencyUnits[i].scale).Round(2)
	}
	return "$" + m.StringFixed(2) + currencyUnits[i].suffix
}

// ParseCurrency reverses FormatCurrency.
func ParseCurrency(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == notAvailable {
		return 0, false
	}
	s = strings.TrimPrefix(s, "$")
	scale := decimal.NewFromInt(1)
	for _, u := range currencyUnits[1:] {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			scale = u.scale
			break
		}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return d.Mul(scale).InexactFloat64(), true
}

// FormatPercent renders a signed two-decimal percentage. Non-negative values
// carry an explicit "+".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0%"
	}
	s := strings.TrimPrefix(decimal.NewFromFloat(v).StringFixed(2), "-")
	if v < 0 {
		return "-" + s + "%"
	}
	return "+" + s + "%"
}

func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatPrice follows en-US currency display: 4 to 8 fraction digits below
// one dollar, two otherwise.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	if v < 1 {
		return "$" + localeNumber(v, 4, 8)
	}
	return "$" + localeNumber(v, 2, 2)
}

// FormatFixed renders v with exactly places fraction digits.
func FormatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func localeNumber(v float64, minFrac, maxFrac int32) string {
	s := decimal.NewFromFloat(v).StringFixed(maxFrac)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	for len(frac) > int(minFrac) && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	out := groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
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
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func percentOr(v NullFloat, def string) string {
	if !v.Valid {
		return def
	}
	return FormatPercent(v.Value)
}

func currencyOr(v NullFloat, def string) string {
	if !v.Valid {
		return def
	}
	return FormatCurrency(v.Value)
}
