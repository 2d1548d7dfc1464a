// Package core provides money parsing and handling utilities.
//
// This file contains the amount normalizer that turns tokens such as "45k",
// "1.2tr" or "2,5 triệu" into whole-unit integers, and the currency detector
// that scans free text for currency markers.
package core

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the local currency assumed when no marker is present.
const DefaultCurrency = "VND"

// ErrNotAnAmount is returned when a token does not normalize to a positive amount.
var ErrNotAnAmount = errors.New("not an amount")

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// magnitudes lists the suffixes longest first so "triệu" wins over "tr".
var magnitudes = []struct {
	suffix     string
	multiplier decimal.Decimal
}{
	{"nghìn", thousand},
	{"nghin", thousand},
	{"ngàn", thousand},
	{"ngan", thousand},
	{"triệu", million},
	{"trieu", million},
	{"tr", million},
	{"tỷ", billion},
	{"tỉ", billion},
	{"ty", billion},
	{"k", thousand},
	{"m", million},
}

// currencyMarkers maps a lower-cased marker to its currency code.
var currencyMarkers = map[string]string{
	"€":    "EUR",
	"eur":  "EUR",
	"euro": "EUR",
	"$":    "USD",
	"usd":  "USD",
	"đ":    "VND",
	"₫":    "VND",
	"vnd":  "VND",
	"vnđ":  "VND",
}

// Word markers must not be glued to other letters, otherwise "đi" would read as dong.
var currencyRe = regexp.MustCompile(`(€|\$|₫)|(?:^|[^\p{L}])(euro|eur|usd|vnđ|vnd|đ)(?:$|[^\p{L}])|\d(?:k|tr|m)(đ)(?:$|[^\p{L}])`)

// ParseAmount normalizes a numeric token with an optional magnitude suffix
// into a whole-unit integer.
//
// Thousands separators are stripped and the remaining separator is treated as
// the decimal point. Suffixes are matched case-insensitively: k/nghìn/ngàn
// multiply by 1,000, tr/triệu/m by 1,000,000 and tỷ/ty by 1,000,000,000.
// A trailing currency marker is tolerated and ignored.
//
// Examples:
//
//	ParseAmount("45k")       -> 45000, nil
//	ParseAmount("1.2tr")     -> 1200000, nil
//	ParseAmount("2,5 triệu") -> 2500000, nil
//	ParseAmount("1tỷ")       -> 1000000000, nil
func ParseAmount(token string) (int64, error) {
	s := NormalizeText(token)
	s = strings.TrimLeft(s, "$€₫ ")
	if s == "" {
		return 0, ErrNotAnAmount
	}

	end := 0
	for end < len(s) && (isDigit(s[end]) || s[end] == '.' || s[end] == ',') {
		end++
	}
	number := strings.Trim(s[:end], ".,")
	if !strings.ContainsAny(number, "0123456789") {
		return 0, ErrNotAnAmount
	}

	multiplier, hasMagnitude, ok := parseSuffix(strings.TrimSpace(s[end:]))
	if !ok {
		return 0, ErrNotAnAmount
	}

	value, err := decimal.NewFromString(normalizeSeparators(number, hasMagnitude))
	if err != nil {
		return 0, ErrNotAnAmount
	}
	if !value.IsPositive() {
		return 0, ErrNotAnAmount
	}

	result := value.Mul(multiplier).Round(0)
	if !result.IsPositive() || result.GreaterThan(maxInt64) {
		return 0, ErrNotAnAmount
	}
	return result.IntPart(), nil
}

// parseSuffix resolves the text after the digits into a multiplier.
func parseSuffix(suffix string) (decimal.Decimal, bool, bool) {
	if suffix == "" {
		return decimal.NewFromInt(1), false, true
	}
	for _, m := range magnitudes {
		if !strings.HasPrefix(suffix, m.suffix) {
			continue
		}
		rest := strings.TrimSpace(suffix[len(m.suffix):])
		if rest == "" || isCurrencyMarker(rest) {
			return m.multiplier, true, true
		}
	}
	if isCurrencyMarker(suffix) {
		return decimal.NewFromInt(1), false, true
	}
	return decimal.Decimal{}, false, false
}

// normalizeSeparators rewrites a digit string with '.'/',' separators into
// a plain decimal literal.
func normalizeSeparators(number string, hasMagnitude bool) string {
	dots := strings.Count(number, ".")
	commas := strings.Count(number, ",")

	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(number, ".") > strings.LastIndex(number, ",") {
			return strings.ReplaceAll(number, ",", "")
		}
		number = strings.ReplaceAll(number, ".", "")
		return strings.ReplaceAll(number, ",", ".")
	case dots+commas == 0:
		return number
	}

	sep := "."
	if commas > 0 {
		sep = ","
	}
	if dots+commas > 1 {
		return strings.ReplaceAll(number, sep, "")
	}
	// "1.200" without a magnitude is a grouped integer; "1.2tr" is a fraction.
	frac := number[strings.Index(number, sep)+1:]
	if len(frac) == 3 && !hasMagnitude {
		return strings.ReplaceAll(number, sep, "")
	}
	return strings.ReplaceAll(number, sep, ".")
}

// DetectCurrency scans text for a currency symbol or code and returns the
// matching ISO code, or fallback when nothing is found.
func DetectCurrency(text, fallback string) string {
	m := currencyRe.FindStringSubmatch(NormalizeText(text))
	for i := 1; i < len(m); i++ {
		if code, ok := currencyMarkers[m[i]]; ok && m[i] != "" {
			return code
		}
	}
	return fallback
}

// CurrencyOf maps a single marker such as "vnđ" or "$" to its code.
func CurrencyOf(marker string) (string, bool) {
	code, ok := currencyMarkers[NormalizeText(marker)]
	return code, ok
}

func isCurrencyMarker(s string) bool {
	_, ok := currencyMarkers[s]
	return ok
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
