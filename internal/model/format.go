package model

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders a dollar amount with thousands separators, matching what
// the storefront shows ("$5,000", "$93.73"). Whole amounts drop the cents.
func FormatUSD(v float64) string {
	if v == math.Trunc(v) {
		return usd.Sprintf("$%d", int64(v))
	}
	s := usd.Sprintf("$%.2f", v)
	return strings.TrimSuffix(s, ".00")
}
