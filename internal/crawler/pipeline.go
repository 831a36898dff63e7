package crawler

import (
	"context"
	"math/rand/v2"
	"time"

	"sjsage522/couponradar/internal/metrics"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Visit outcomes
const (
	OutcomeAccepted       = "accepted"
	OutcomeFetchFailed    = "fetch_failed"
	OutcomeParseFailed    = "parse_failed"
	OutcomeRejected       = "rejected"
	OutcomeBelowThreshold = "below_threshold"
)

// RunParams are the per-run knobs of a pipeline run
type RunParams struct {
	ListingURL      string
	MaxItems        int
	MinDiscountRate decimal.Decimal
	Loose           bool
	Debug           bool
	MaxRetries      int
}

// Visit records what happened to one candidate
type Visit struct {
	URL          string              `json:"url"`
	Outcome      string              `json:"outcome"`
	DiscountRate decimal.NullDecimal `json:"discount_rate"`
}

// RunResult is the outcome of a pipeline run
type RunResult struct {
	RunID      string          `json:"run_id"`
	ListingURL string          `json:"listing_url"`
	Candidates int             `json:"candidates"`
	Checked    int             `json:"checked"`
	Deals      []EvaluatedDeal `json:"deals"`
	Visits     []Visit         `json:"visits,omitempty"`
}

// Pipeline drives link collection, page extraction and evaluation for one listing
type Pipeline struct {
	fetcher   PageFetcher
	selectors Selectors
	baseURL   string
	prices    *PriceExtractor
	coupons   *CouponExtractor
	paceMin   time.Duration
	paceMax   time.Duration
	sleep     func(context.Context, time.Duration) error
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewPipeline creates a pipeline. Visits are spaced by a random delay in [paceMin, paceMax].
func NewPipeline(fetcher PageFetcher, selectors Selectors, baseURL string, paceMin, paceMax time.Duration) *Pipeline {
	if paceMax < paceMin {
		paceMax = paceMin
	}
	return &Pipeline{
		fetcher:   fetcher,
		selectors: selectors,
		baseURL:   baseURL,
		prices:    NewPriceExtractor(selectors),
		coupons:   NewCouponExtractor(selectors),
		paceMin:   paceMin,
		paceMax:   paceMax,
		sleep:     sleepContext,
		log:       logger.ForPipeline(),
	}
}

// WithMetrics makes the pipeline record runs and visit outcomes
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Run collects candidates from the listing and returns the deals at or above
// MinDiscountRate, in candidate order. A failing candidate is skipped. Only
// context cancellation ends the run early; the partial result is returned with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	result := &RunResult{
		RunID:      uuid.NewString(),
		ListingURL: params.ListingURL,
		Deals:      []EvaluatedDeal{},
	}
	log := p.log.WithField("run_id", result.RunID)
	start := time.Now()
	defer func() {
		p.metrics.RecordRun(time.Since(start), len(result.Deals))
	}()

	collector := NewLinkCollector(p.fetcher, p.selectors, p.baseURL, params.MaxRetries)
	links := collector.Collect(ctx, params.ListingURL)
	result.Candidates = len(links)

	if params.MaxItems >= 0 && len(links) > params.MaxItems {
		links = links[:params.MaxItems]
	}

	log.Info().
		Str("listing_url", params.ListingURL).
		Int("candidates", result.Candidates).
		Int("to_check", len(links)).
		Msg("Starting pipeline run")

	for i, link := range links {
		if i > 0 {
			if err := p.sleep(ctx, p.pace()); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		visit := p.visit(ctx, link, params)
		result.Checked++
		if params.Debug {
			result.Visits = append(result.Visits, visit.Visit)
		}
		if visit.Outcome == OutcomeAccepted {
			result.Deals = append(result.Deals, visit.deal)
		}

		p.metrics.RecordVisit(visit.Outcome)
		p.logVisit(log, params.Debug, visit.Visit)
	}

	log.Info().
		Int("checked", result.Checked).
		Int("deals", len(result.Deals)).
		Msg("Pipeline run finished")

	return result, ctx.Err()
}

type visitResult struct {
	Visit
	deal EvaluatedDeal
}

// visit fetches and evaluates one candidate
func (p *Pipeline) visit(ctx context.Context, link string, params RunParams) visitResult {
	v := visitResult{Visit: Visit{URL: link}}

	markup, ok := p.fetcher.Fetch(ctx, link, params.MaxRetries)
	if !ok {
		v.Outcome = OutcomeFetchFailed
		return v
	}

	doc, err := NewDocument(markup)
	if err != nil {
		p.log.Debug().Err(errors.NewParsing(link, "product page could not be parsed", err)).Msg("Candidate skipped")
		v.Outcome = OutcomeParseFailed
		return v
	}

	title, _ := doc.SelectFirst(p.selectors.Title)
	prices := p.prices.ExtractPrices(doc)
	coupon := p.coupons.ExtractCoupon(doc, prices.Discounted)

	deal, ok := Evaluate(prices, coupon, title, link, params.Loose)
	if !ok {
		v.Outcome = OutcomeRejected
		return v
	}
	v.DiscountRate = deal.DiscountRate

	if !deal.DiscountRate.Valid || deal.DiscountRate.Decimal.LessThan(params.MinDiscountRate) {
		v.Outcome = OutcomeBelowThreshold
		return v
	}

	v.Outcome = OutcomeAccepted
	v.deal = deal
	return v
}

func (p *Pipeline) logVisit(log *logger.Logger, debug bool, v Visit) {
	var event *zerolog.Event
	if debug {
		event = log.Info()
	} else {
		event = log.Debug()
	}

	event = event.Str("url", v.URL).Str("outcome", v.Outcome)
	if v.DiscountRate.Valid {
		event = event.Str("discount_rate", v.DiscountRate.Decimal.StringFixed(1))
	}
	event.Msg("Candidate checked")
}

// pace returns a random delay in [paceMin, paceMax]
func (p *Pipeline) pace() time.Duration {
	spread := p.paceMax - p.paceMin
	if spread <= 0 {
		return p.paceMin
	}
	return p.paceMin + time.Duration(rand.Int64N(int64(spread)+1))
}
