package crawler

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSignal holds the prices found on a product page. Either may be absent.
type PriceSignal struct {
	Original   decimal.NullDecimal
	Discounted decimal.NullDecimal
}

// CouponSignal holds the coupon found on a product page.
// Value is zero when no coupon could be quantified.
type CouponSignal struct {
	Value   decimal.Decimal
	RawText string
}

// EvaluatedDeal is a product that passed the acceptance policy
type EvaluatedDeal struct {
	Title        string              `json:"title"`
	URL          string              `json:"url"`
	Original     decimal.NullDecimal `json:"original"`
	DealPrice    decimal.Decimal     `json:"deal_price"`
	CouponValue  decimal.Decimal     `json:"coupon_value"`
	CouponText   string              `json:"coupon_text"`
	FinalPrice   decimal.Decimal     `json:"final_price"`
	DiscountRate decimal.NullDecimal `json:"discount_rate"`
}

// PageFetcher retrieves page markup. ok is false when nothing usable came back.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, maxRetries int) (markup string, ok bool)
}

// Selectors contains CSS selectors for the marketplace's listing and product pages
type Selectors struct {
	ProductLink   string
	ProductMarker string
	Title         string
	OriginalPrice string
	DealPrice     []string
	PriceFallback string
	CouponRegions []string
}
