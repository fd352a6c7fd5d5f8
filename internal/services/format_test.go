package services

import (
	"math"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12, "$12.00"},
		{1234, "$1.23K"},
		{1_500_000, "$1.50M"},
		{2_500_000_000, "$2.50B"},
		{1_200_000_000_000, "$1200.00B"},
		{999.999, "$1.00K"},
		{999_999.9, "$1.00M"},
		{math.NaN(), "N/A"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.in); got != c.want {
			t.Fatalf("FormatCurrency(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCurrencyRoundTripIsStable(t *testing.T) {
	values := []float64{0.5, 7, 999.994, 999.999, 1000, 45_678.9, 999_995, 3_210_000, 87_654_321_000, 1.9e12}
	for _, v := range values {
		s := FormatCurrency(v)
		parsed, ok := ParseCurrency(s)
		if !ok {
			t.Fatalf("ParseCurrency(%q) failed", s)
		}
		if again := FormatCurrency(parsed); again != s {
			t.Fatalf("round trip of %v: %q -> %v -> %q", v, s, parsed, again)
		}
	}
	if _, ok := ParseCurrency("N/A"); ok {
		t.Fatalf("expected N/A to be unparseable")
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{5, "+5.00%"},
		{0, "+0.00%"},
		{-3.456, "-3.46%"},
		{-0.001, "-0.00%"},
		{0.001, "+0.00%"},
		{12.5, "+12.50%"},
		{math.NaN(), "0%"},
	}
	for _, c := range cases {
		if got := FormatPercent(c.in); got != c.want {
			t.Fatalf("FormatPercent(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	if v, ok := ParsePercent("+12.50%"); !ok || v != 12.5 {
		t.Fatalf("ParsePercent(+12.50%%) = %v, %v", v, ok)
	}
	if v, ok := ParsePercent("-1.25%"); !ok || v != -1.25 {
		t.Fatalf("ParsePercent(-1.25%%) = %v, %v", v, ok)
	}
	if _, ok := ParsePercent("N/A"); ok {
		t.Fatalf("expected N/A to be unparseable")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{43250.5, "$43,250.50"},
		{1234567.891, "$1,234,567.89"},
		{1, "$1.00"},
		{0.5, "$0.5000"},
		{0.00001234, "$0.00001234"},
		{0.123456789, "$0.12345679"},
	}
	for _, c := range cases {
		if got := FormatPrice(c.in); got != c.want {
			t.Fatalf("FormatPrice(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLocaleNumberTrimsOptionalDigits(t *testing.T) {
	if got := localeNumber(6.5, 0, 2); got != "6.5" {
		t.Fatalf("got %q", got)
	}
	if got := localeNumber(6, 0, 2); got != "6" {
		t.Fatalf("got %q", got)
	}
	if got := localeNumber(1234567, 0, 2); got != "1,234,567" {
		t.Fatalf("got %q", got)
	}
	if got := FormatFixed(12.3456789, 4); got != "12.3457" {
		t.Fatalf("FormatFixed = %q", got)
	}
}
