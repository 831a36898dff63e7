package crawler

import (
	"github.com/shopspring/decimal"
)

// PriceExtractor reads list and deal prices from a product page
type PriceExtractor struct {
	selectors Selectors
}

// NewPriceExtractor creates a price extractor for the given selector set
func NewPriceExtractor(selectors Selectors) *PriceExtractor {
	return &PriceExtractor{selectors: selectors}
}

// ExtractPrices returns the original and discounted prices found in doc.
// When the page has a deal price but no strikethrough price, the highest
// price anywhere on the page stands in for the original.
func (p *PriceExtractor) ExtractPrices(doc DocumentView) PriceSignal {
	var signal PriceSignal

	if text, ok := doc.SelectFirst(p.selectors.OriginalPrice); ok {
		signal.Original = ParseMoney(text)
	}

	for _, selector := range p.selectors.DealPrice {
		if text, ok := doc.SelectFirst(selector); ok {
			signal.Discounted = ParseMoney(text)
			break
		}
	}

	if !signal.Original.Valid && signal.Discounted.Valid {
		signal.Original = p.maxPrice(doc)
	}

	return signal
}

// maxPrice returns the highest positive price in the fallback selector's nodes
func (p *PriceExtractor) maxPrice(doc DocumentView) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, text := range doc.SelectAll(p.selectors.PriceFallback) {
		price := ParseMoney(text)
		if !price.Valid || !price.Decimal.IsPositive() {
			continue
		}
		if !best.Valid || price.Decimal.GreaterThan(best.Decimal) {
			best = price
		}
	}
	return best
}
