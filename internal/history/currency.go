package history

import (
	"math"
	"strconv"
	"strings"
)

// currencyTokens are removed (case-insensitively) before parsing a monetary value.
// "rp." precedes "rp" so the trailing dot of the abbreviated form is not left behind.
var currencyTokens = []string{"idr", "usd", "eur", "rp.", "rp", "$", "€", "£", "¥"}

// separatorReplacer drops thousands separators and embedded whitespace.
// A '.' is always read as the decimal point.
var separatorReplacer = strings.NewReplacer(
	",", "",
	"_", "",
	"'", "",
	" ", "",
	"\t", "",
	"\u00a0", "",
)

// ParseCurrency converts currency-formatted text such as "Rp 500,000,000" into a
// plain non-negative amount. Empty, unparseable, non-finite or negative input
// yields 0.
func ParseCurrency(text string) float64 {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	return parseNonNegative(separatorReplacer.Replace(s))
}

// ParseCount converts text such as "15" or "15.0" into a non-negative integer,
// truncating any fraction. Anything unparseable yields 0.
func ParseCount(text string) int {
	v := parseNonNegative(separatorReplacer.Replace(strings.TrimSpace(text)))
	if v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

func parseNonNegative(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
