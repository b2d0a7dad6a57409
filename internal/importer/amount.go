package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a locale-formatted amount such as "1.234,56",
// "1,234.56", "(50,00)" or "50.00-".
//
// When both "," and "." appear the rightmost one is the decimal separator.
// A lone "," is always decimal. A lone "." is left to the number parser, so
// "1.234" reads as 1.234, not 1234.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' || r == '(' || r == ')' {
			return r
		}
		return -1
	}, s)

	negative := strings.Contains(s, "(") && strings.Contains(s, ")")
	s = strings.NewReplacer("(", "", ")", "").Replace(s)
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		negative = true
	}
	s = strings.ReplaceAll(s, "-", "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
