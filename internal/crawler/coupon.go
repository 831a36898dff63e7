package crawler

import (
	"regexp"
	"strings"

	"sjsage522/couponradar/helpers"

	"github.com/shopspring/decimal"
)

const (
	couponToken        = "coupon"
	maxCouponFragments = 5
	couponSeparator    = " | "
)

var (
	dollarPattern  = regexp.MustCompile(`\$([0-9]+(?:\.[0-9]{2})?)`)
	percentPattern = regexp.MustCompile(`(\d{1,2})\s*%`)
	hundred        = decimal.NewFromInt(100)
)

// CouponExtractor reads coupon badges and coupon text from a product page
type CouponExtractor struct {
	selectors Selectors
}

// NewCouponExtractor creates a coupon extractor for the given selector set
func NewCouponExtractor(selectors Selectors) *CouponExtractor {
	return &CouponExtractor{selectors: selectors}
}

// ExtractCoupon scans the coupon regions in order and quantifies the first coupon found.
// A dollar amount beats a percentage; a percentage needs a known discounted price.
func (c *CouponExtractor) ExtractCoupon(doc DocumentView, discounted decimal.NullDecimal) CouponSignal {
	fragments := c.fragments(doc)
	raw := strings.Join(fragments, couponSeparator)

	return CouponSignal{
		Value:   CouponValue(raw, discounted),
		RawText: raw,
	}
}

// fragments returns up to maxCouponFragments texts mentioning a coupon, in scan order
func (c *CouponExtractor) fragments(doc DocumentView) []string {
	var out []string
	for _, selector := range c.selectors.CouponRegions {
		for _, text := range doc.SelectAll(selector) {
			if text == "" || !helpers.ContainsFold(text, couponToken) {
				continue
			}
			out = append(out, text)
			if len(out) == maxCouponFragments {
				return out
			}
		}
	}
	return out
}

// CouponValue resolves the coupon amount described by raw text. It returns zero
// when the text carries no usable amount.
func CouponValue(raw string, discounted decimal.NullDecimal) decimal.Decimal {
	if m := dollarPattern.FindStringSubmatch(raw); m != nil {
		if value, err := decimal.NewFromString(m[1]); err == nil {
			return value.Round(2)
		}
	}

	if !discounted.Valid {
		return decimal.Zero
	}

	if m := percentPattern.FindStringSubmatch(raw); m != nil {
		pct, err := decimal.NewFromString(m[1])
		if err != nil {
			return decimal.Zero
		}
		return discounted.Decimal.Mul(pct).Div(hundred).Round(2)
	}

	return decimal.Zero
}
