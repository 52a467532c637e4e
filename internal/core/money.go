// Package core holds the finapp domain model and money handling.
//
// Amounts are carried as integer cents everywhere; floats only appear at the
// parsing and formatting boundary.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts free-form localized numeric text to cents.
//
// It accepts both comma and dot as the decimal separator, tolerates thousands
// separators, parenthesized negatives and stray non-numeric characters.
// When both separators appear, the right-most one is the decimal separator.
// A comma repeated more than once is always a thousands separator; a repeated
// dot keeps only its last occurrence as the decimal separator.
//
// ParseAmount never fails: unrecoverable input parses to zero cents.
//
// Examples:
//
//	ParseAmount("1.234,56") -> 123456
//	ParseAmount("1,234.56") -> 123456
//	ParseAmount("(12,50)")  -> -1250
//	ParseAmount("")         -> 0
func ParseAmount(s string) Money {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}
	}

	negative := strings.Contains(s, "(") && strings.Contains(s, ")")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			negative = true
		}
	}
	raw := b.String()
	if raw == "" {
		return Money{}
	}

	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// Right-most separator wins as the decimal point.
		decimal := lastDot
		if lastComma > lastDot {
			decimal = lastComma
		}
		raw = keepDecimalAt(raw, decimal)
	case lastComma >= 0:
		if strings.Count(raw, ",") > 1 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.Replace(raw, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(raw, ".") > 1 {
			raw = keepDecimalAt(raw, lastDot)
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Money{}
	}

	cents := int64(math.Round(v * 100))
	if negative {
		cents = -cents
	}
	return Money{Cents: cents}
}

// keepDecimalAt strips every separator from raw except the one at the given
// index, which becomes a dot.
func keepDecimalAt(raw string, decimal int) string {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case i == decimal:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// FormatBRL renders cents in Brazilian display format: two decimal digits,
// comma decimal separator, dot thousands separator ("1.234,56"). The currency
// marker is the presenting layer's job.
func FormatBRL(m Money) string {
	cents := m.Cents
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	frac := cents % 100
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// Reais returns the amount as a float64 for display and export only.
// Calculations stay in cents to avoid floating-point drift.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}
