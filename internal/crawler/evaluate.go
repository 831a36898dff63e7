package crawler

import (
	"sjsage522/couponradar/helpers"

	"github.com/shopspring/decimal"
)

// Evaluate reconciles the price and coupon signals of one product page.
// ok is false when the page had no discounted price or the coupon fails the
// acceptance policy: loose accepts any coupon mention, strict needs a quantified value.
func Evaluate(prices PriceSignal, coupon CouponSignal, title, url string, loose bool) (EvaluatedDeal, bool) {
	if !prices.Discounted.Valid {
		return EvaluatedDeal{}, false
	}

	if loose {
		if !helpers.ContainsFold(coupon.RawText, couponToken) {
			return EvaluatedDeal{}, false
		}
	} else if !coupon.Value.IsPositive() {
		return EvaluatedDeal{}, false
	}

	deal := prices.Discounted.Decimal
	final := deal
	if coupon.Value.IsPositive() {
		final = deal.Sub(coupon.Value)
	}

	return EvaluatedDeal{
		Title:        title,
		URL:          url,
		Original:     prices.Original,
		DealPrice:    deal,
		CouponValue:  coupon.Value,
		CouponText:   coupon.RawText,
		FinalPrice:   final,
		DiscountRate: DiscountRate(final, prices.Original),
	}, true
}

// DiscountRate returns the percentage saved from original to final, rounded to one place.
// It is absent when original is unknown or not positive.
func DiscountRate(final decimal.Decimal, original decimal.NullDecimal) decimal.NullDecimal {
	if !original.Valid || !original.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}

	ratio := final.Div(original.Decimal)
	rate := decimal.NewFromInt(1).Sub(ratio).Mul(hundred).Round(1)
	return decimal.NewNullDecimal(rate)
}
