package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"1", 100},
		{"1,23", 123},
		{"1.23", 123},
		{"0,01", 1},
		{"1.234,56", 123456},
		{"1,234.56", 123456},
		{"1.234.567,89", 123456789},
		{"1,234,567.89", 123456789},
		{"1,234,567", 123456700}, // repeated comma: thousands only
		{"1.2.3", 1230},          // repeated dot: last one is decimal
		{"R$ 1.234,56", 123456},
		{" 2,50 ", 250},
		{"-12,50", -1250},
		{"(12,50)", -1250},
		{"(1.000,00)", -100000},
		{"10,5", 1050},
		{"", 0},
		{"abc", 0},
		{"--", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got.Cents != tc.out {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got.Cents, tc.out)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0,00"},
		{1, "0,01"},
		{100, "1,00"},
		{123456, "1.234,56"},
		{123456789, "1.234.567,89"},
		{-1250, "-12,50"},
		{-100000, "-1.000,00"},
		{100000000, "1.000.000,00"},
	}
	for _, tc := range cases {
		if got := FormatBRL(Money{Cents: tc.in}); got != tc.out {
			t.Fatalf("FormatBRL(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 1250, 123456, 99999999, -1, -1250, -123456} {
		m := Money{Cents: cents}
		if got := ParseAmount(FormatBRL(m)); got != m {
			t.Fatalf("round trip %d: got %d", cents, got.Cents)
		}
	}
}

func TestReais(t *testing.T) {
	if got := (Money{Cents: 123456}).Reais(); got != 1234.56 {
		t.Fatalf("Reais() = %v, want 1234.56", got)
	}
}
