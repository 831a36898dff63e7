package crawler

import (
	"context"
	"strings"

	"sjsage522/couponradar/helpers"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/pkg/errors"
)

// LinkCollector extracts product detail URLs from a listing page
type LinkCollector struct {
	fetcher    PageFetcher
	selectors  Selectors
	baseURL    string
	maxRetries int
	log        *logger.Logger
}

// NewLinkCollector creates a link collector. Relative links resolve against baseURL,
// or against the listing URL when baseURL is empty.
func NewLinkCollector(fetcher PageFetcher, selectors Selectors, baseURL string, maxRetries int) *LinkCollector {
	return &LinkCollector{
		fetcher:    fetcher,
		selectors:  selectors,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		log:        logger.ForPipeline(),
	}
}

// Collect fetches the listing page and returns normalized product URLs in first-seen order
func (c *LinkCollector) Collect(ctx context.Context, listingURL string) []string {
	markup, ok := c.fetcher.Fetch(ctx, listingURL, c.maxRetries)
	if !ok || markup == "" {
		c.log.Warn().Str("listing_url", listingURL).Msg("Listing page unavailable")
		return nil
	}

	doc, err := NewDocument(markup)
	if err != nil {
		c.log.Warn().Err(errors.NewParsing(listingURL, "listing page could not be parsed", err)).Msg("Listing page skipped")
		return nil
	}

	base := c.baseURL
	if base == "" {
		base = listingURL
	}
	return c.CollectFromDocument(doc, base)
}

// CollectFromDocument returns the normalized, deduplicated product URLs found in doc
func (c *LinkCollector) CollectFromDocument(doc DocumentView, base string) []string {
	seen := make(map[string]struct{})
	var links []string

	for _, href := range doc.SelectAttrs(c.selectors.ProductLink, "href") {
		if !strings.Contains(href, c.selectors.ProductMarker) {
			continue
		}

		link := helpers.ResolveURL(base, href)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	return links
}
