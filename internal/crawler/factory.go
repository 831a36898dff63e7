package crawler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sjsage522/couponradar/config"
	"sjsage522/couponradar/helpers"
	"sjsage522/couponradar/services/cache"

	"github.com/shopspring/decimal"
)

// Runner runs the discovery pipeline for one listing
type Runner interface {
	Run(ctx context.Context, params RunParams) (*RunResult, error)
}

// categoryPaths maps category names to listing paths on the marketplace
var categoryPaths = map[string]string{
	"all":         "/gp/goldbox?ref=nav_cs_gb",
	"electronics": "/b?node=172282&ref_=nav_cs_3c",
	"appliances":  "/b?node=667846011&ref_=nav_cs_appliances",
	"beauty":      "/b?node=11060451&ref_=nav_cs_beauty",
}

// Categories returns the known category names in sorted order
func Categories() []string {
	names := make([]string, 0, len(categoryPaths))
	for name := range categoryPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListingURL builds the listing page URL for a category
func ListingURL(baseURL, category string) (string, error) {
	path, ok := categoryPaths[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return "", fmt.Errorf("unknown category %q (known: %s)", category, strings.Join(Categories(), ", "))
	}
	return strings.TrimRight(baseURL, "/") + path, nil
}

// DefaultSelectors returns the selector set for the current product page layout
func DefaultSelectors() Selectors {
	return Selectors{
		ProductLink:   "a.a-link-normal[href*='/dp/']",
		ProductMarker: "/dp/",
		Title:         "#productTitle",
		OriginalPrice: ".a-text-price .a-offscreen",
		DealPrice: []string{
			"#corePriceDisplay_desktop_feature_div .a-offscreen",
			".a-price .a-offscreen",
		},
		PriceFallback: ".a-offscreen",
		CouponRegions: []string{
			"#couponBadge_feature_div",
			"#couponText_feature_div",
			".a-color-success",
			".a-row",
		},
	}
}

// CreateFetcher creates the shared fetcher from configuration
func CreateFetcher(cfg *config.Config, cacheSvc cache.CacheService) *Fetcher {
	return NewFetcher(FetchConfig{
		Headers:           helpers.BrowserHeaders(cfg.UserAgent, cfg.AcceptLanguage),
		Timeout:           cfg.FetchTimeout,
		BackoffBase:       cfg.BackoffBase,
		BackoffStep:       cfg.BackoffStep,
		BackoffJitter:     cfg.BackoffJitter,
		MinRequestSpacing: cfg.MinRequestSpacing,
		ChallengeMarkers:  cfg.ChallengeMarkers,
		BlockTime:         cfg.BlockTime,
	}, cacheSvc)
}

// CreatePipeline creates a pipeline over fetcher with the canonical selectors
func CreatePipeline(cfg *config.Config, fetcher PageFetcher) *Pipeline {
	return NewPipeline(fetcher, DefaultSelectors(), cfg.BaseURL, cfg.PaceMin, cfg.PaceMax)
}

// DefaultRunParams returns the configured run parameters for a category
func DefaultRunParams(cfg *config.Config, category string) (RunParams, error) {
	listingURL, err := ListingURL(cfg.BaseURL, category)
	if err != nil {
		return RunParams{}, err
	}

	return RunParams{
		ListingURL:      listingURL,
		MaxItems:        cfg.MaxItems,
		MinDiscountRate: decimal.NewFromFloat(cfg.MinDiscountRate),
		Loose:           cfg.LooseMode,
		Debug:           cfg.DebugOutput,
		MaxRetries:      cfg.FetchRetries,
	}, nil
}
