package crawler

import (
	"strings"

	"github.com/shopspring/decimal"
)

var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "", " ", "")

// ParseMoney parses a price such as "$1,234.56" into a 2-place decimal.
// Unparsable or negative text yields an invalid NullDecimal.
func ParseMoney(text string) decimal.NullDecimal {
	cleaned := moneyCleaner.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.NullDecimal{}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil || value.IsNegative() {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(value.Round(2))
}
