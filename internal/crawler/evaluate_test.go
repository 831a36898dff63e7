package crawler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestEvaluate(t *testing.T) {
	prices := PriceSignal{Original: money("100"), Discounted: money("80")}
	coupon := CouponSignal{Value: decimal.NewFromInt(10), RawText: "$10 coupon"}

	deal, ok := Evaluate(prices, coupon, "Blender", "https://www.amazon.com/dp/B01", false)
	assert.True(t, ok)
	assert.Equal(t, "Blender", deal.Title)
	assert.Equal(t, "https://www.amazon.com/dp/B01", deal.URL)
	assert.Equal(t, "70.00", deal.FinalPrice.StringFixed(2))
	assert.True(t, deal.DiscountRate.Valid)
	assert.Equal(t, "30.0", deal.DiscountRate.Decimal.StringFixed(1))
	assert.Equal(t, "$10 coupon", deal.CouponText)
}

func TestEvaluateStrictRejectsUnquantifiedCoupon(t *testing.T) {
	prices := PriceSignal{Original: money("100"), Discounted: money("60")}
	coupon := CouponSignal{Value: decimal.Zero, RawText: "Apply coupon"}

	_, ok := Evaluate(prices, coupon, "", "u", false)
	assert.False(t, ok)

	deal, ok := Evaluate(prices, coupon, "", "u", true)
	assert.True(t, ok)
	assert.Equal(t, "60.00", deal.FinalPrice.StringFixed(2))
	assert.Equal(t, "40.0", deal.DiscountRate.Decimal.StringFixed(1))
}

func TestEvaluateLooseNeedsCouponMention(t *testing.T) {
	prices := PriceSignal{Original: money("100"), Discounted: money("60")}

	_, ok := Evaluate(prices, CouponSignal{}, "", "u", true)
	assert.False(t, ok)
}

func TestEvaluateNoDiscountedPrice(t *testing.T) {
	prices := PriceSignal{Original: money("100")}
	coupon := CouponSignal{Value: decimal.NewFromInt(5), RawText: "$5 coupon"}

	_, ok := Evaluate(prices, coupon, "", "u", true)
	assert.False(t, ok)
	_, ok = Evaluate(prices, coupon, "", "u", false)
	assert.False(t, ok)
}

func TestEvaluateWithoutOriginal(t *testing.T) {
	prices := PriceSignal{Discounted: money("45")}
	coupon := CouponSignal{Value: decimal.NewFromInt(5), RawText: "$5 coupon"}

	deal, ok := Evaluate(prices, coupon, "", "u", false)
	assert.True(t, ok)
	assert.Equal(t, "40.00", deal.FinalPrice.StringFixed(2))
	assert.False(t, deal.DiscountRate.Valid)
	assert.False(t, deal.Original.Valid)
}

func TestDiscountRate(t *testing.T) {
	tests := []struct {
		name     string
		final    string
		original decimal.NullDecimal
		want     string
		valid    bool
	}{
		{"thirty", "70", money("100"), "30.0", true},
		{"rounds half away from zero", "66.65", money("100"), "33.4", true},
		{"one third", "20", money("30"), "33.3", true},
		{"no discount", "50", money("50"), "0.0", true},
		{"price above original", "120", money("100"), "-20.0", true},
		{"zero original", "10", money("0"), "", false},
		{"absent original", "10", decimal.NullDecimal{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountRate(decimal.RequireFromString(tt.final), tt.original)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Decimal.StringFixed(1))
			}
		})
	}
}
