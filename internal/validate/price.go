package validate

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinReasonablePrice = 0.01
	MaxReasonablePrice = 100000.0
)

// Tried in order; the first match wins.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d{2})?)\s*\$`),
	regexp.MustCompile(`(?i)USD\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d{2})?)\s*USD`),
}

// ExtractPrice finds the first price-looking amount in text such as
// "$1,234.56", "1234.56$", "USD 1234.56" or "1234.56 USD".
func ExtractPrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// IsReasonablePrice reports whether price lies in [0.01, 100000].
func IsReasonablePrice(price float64) bool {
	return IsPriceInRange(price, MinReasonablePrice, MaxReasonablePrice)
}

func IsPriceInRange(price, min, max float64) bool {
	return min <= price && price <= max
}
