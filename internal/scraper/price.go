package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceJunk     = regexp.MustCompile(`[^0-9,.]`)
	leadingNumber = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`)
)

// ParsePriceText cleans display text such as "R 12,50" or "R1 299.00".
// Only digits, commas and periods survive, commas become decimal points, and
// the leading numeric prefix is parsed. "1,299.00" therefore reads as 1.299.
func ParsePriceText(raw string) (float64, bool) {
	cleaned := priceJunk.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return parseLeadingFloat(cleaned)
}

// parseLeadingFloat parses the longest numeric prefix of s and ignores the rest.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, validPrice(v)
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
