package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPrices(t *testing.T) {
	extractor := NewPriceExtractor(DefaultSelectors())

	doc := mustDocument(productPage("Headphones", "$129.99", "$89.50", ""))
	prices := extractor.ExtractPrices(doc)

	assert.True(t, prices.Original.Valid)
	assert.Equal(t, "129.99", prices.Original.Decimal.StringFixed(2))
	assert.True(t, prices.Discounted.Valid)
	assert.Equal(t, "89.50", prices.Discounted.Decimal.StringFixed(2))
}

func TestExtractPricesGenericDealFallback(t *testing.T) {
	extractor := NewPriceExtractor(DefaultSelectors())

	doc := mustDocument(`<html><body>
		<div class="other"><span class="a-price"><span class="a-offscreen">$42.00</span></span></div>
		<span class="a-text-price"><span class="a-offscreen">$60.00</span></span>
	</body></html>`)
	prices := extractor.ExtractPrices(doc)

	assert.Equal(t, "42.00", prices.Discounted.Decimal.StringFixed(2))
	assert.Equal(t, "60.00", prices.Original.Decimal.StringFixed(2))
}

func TestExtractPricesInfersOriginalFromMaximum(t *testing.T) {
	extractor := NewPriceExtractor(DefaultSelectors())

	doc := mustDocument(`<html><body>
		<div id="corePriceDisplay_desktop_feature_div">
			<span class="a-price"><span class="a-offscreen">$8.00</span></span>
		</div>
		<ul>
			<li><span class="a-offscreen">$10.00</span></li>
			<li><span class="a-offscreen">$25.00</span></li>
			<li><span class="a-offscreen">see options</span></li>
			<li><span class="a-offscreen">$15.00</span></li>
		</ul>
	</body></html>`)
	prices := extractor.ExtractPrices(doc)

	assert.True(t, prices.Discounted.Valid)
	assert.Equal(t, "8.00", prices.Discounted.Decimal.StringFixed(2))
	assert.True(t, prices.Original.Valid)
	assert.Equal(t, "25.00", prices.Original.Decimal.StringFixed(2))
}

func TestExtractPricesNoFallbackWithoutDeal(t *testing.T) {
	extractor := NewPriceExtractor(DefaultSelectors())

	doc := mustDocument(`<html><body><span class="a-offscreen">$30.00</span></body></html>`)
	prices := extractor.ExtractPrices(doc)

	assert.False(t, prices.Discounted.Valid)
	assert.False(t, prices.Original.Valid)
}

func TestExtractPricesUnparsable(t *testing.T) {
	extractor := NewPriceExtractor(DefaultSelectors())

	doc := mustDocument(productPage("Widget", "", "Currently unavailable", ""))
	prices := extractor.ExtractPrices(doc)

	assert.False(t, prices.Discounted.Valid)
	assert.False(t, prices.Original.Valid)
}
