package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sjsage522/couponradar/helpers"
	"sjsage522/couponradar/internal/metrics"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/pkg/errors"
	"sjsage522/couponradar/services/cache"

	"golang.org/x/time/rate"
)

// FetchConfig is the fixed request configuration of a Fetcher
type FetchConfig struct {
	Headers           http.Header
	Timeout           time.Duration
	BackoffBase       time.Duration
	BackoffStep       time.Duration
	BackoffJitter     time.Duration
	MinRequestSpacing time.Duration
	ChallengeMarkers  []string
	BlockTime         time.Duration
}

// Fetcher retrieves pages with retry, backoff and bot-challenge detection.
// It reuses one HTTP client for all requests.
type Fetcher struct {
	client  *http.Client
	config  FetchConfig
	cache   cache.CacheService
	metrics *metrics.Metrics
	log     *logger.Logger
	sleep   func(context.Context, time.Duration) error

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a fetcher. Block markers are kept in cacheSvc only when
// BlockTime is positive; a nil cacheSvc disables them too.
func NewFetcher(config FetchConfig, cacheSvc cache.CacheService) *Fetcher {
	if config.BlockTime <= 0 {
		cacheSvc = nil
	}
	config.Headers = config.Headers.Clone()
	if config.Headers == nil {
		config.Headers = make(http.Header)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Fetcher{
		client:   &http.Client{Timeout: config.Timeout},
		config:   config,
		cache:    cacheSvc,
		log:      logger.ForFetcher(),
		sleep:    sleepContext,
		limiters: make(map[string]*rate.Limiter),
	}
}

// WithMetrics makes the fetcher record attempts and page blocks
func (f *Fetcher) WithMetrics(m *metrics.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// Fetch returns the page markup, or ok=false once every attempt has failed.
// maxRetries is the total number of attempts and is at least 1.
func (f *Fetcher) Fetch(ctx context.Context, url string, maxRetries int) (string, bool) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	host := helpers.Host(url)

	if f.isBlocked(url) {
		f.log.Debug().Str("url", url).Msg("Page is blocked, skipping fetch")
		return "", false
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.backoff(attempt-1)); err != nil {
				return "", false
			}
		}

		markup, err := f.fetchOnce(ctx, host, url)
		f.metrics.RecordFetch(fetchOutcome(err))
		if err == nil {
			return markup, true
		}
		lastErr = err

		f.log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt+1).
			Int("max_attempts", maxRetries).
			Msg("Fetch attempt failed")

		if ctx.Err() != nil {
			return "", false
		}
		var ce *errors.CrawlerError
		if stderrors.As(err, &ce) && !ce.IsRetryable() {
			break
		}
	}

	f.blockPage(url, lastErr)
	f.log.Warn().Str("url", url).Msg("Giving up on page")
	return "", false
}

// fetchOnce performs a single GET and classifies the outcome
func (f *Fetcher) fetchOnce(ctx context.Context, host, url string) (string, error) {
	if err := f.limiter(host).Wait(ctx); err != nil {
		return "", errors.NewNetwork(host, "request spacing interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NewNetwork(host, "failed to create request", err)
	}
	req.Header = f.config.Headers.Clone()

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.NewNetwork(host, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		io.Copy(io.Discard, resp.Body)
		return "", errors.NewRateLimit(host, resp.StatusCode, resp.Header.Get("Retry-After"))
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return "", errors.NewNetwork(host, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	body, err := helpers.ReadUTF8(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.NewNetwork(host, "failed to read body", err)
	}

	lower := strings.ToLower(body)
	for _, marker := range f.config.ChallengeMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return "", errors.NewChallenge(host, marker)
		}
	}

	return body, nil
}

// backoff returns the wait after the given zero-based failed attempt
func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.config.BackoffBase + time.Duration(attempt)*f.config.BackoffStep
	if f.config.BackoffJitter > 0 {
		d += time.Duration(rand.Int64N(int64(f.config.BackoffJitter)))
	}
	return d
}

// limiter returns the request-spacing limiter for a host
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		limit := rate.Inf
		if f.config.MinRequestSpacing > 0 {
			limit = rate.Every(f.config.MinRequestSpacing)
		}
		l = rate.NewLimiter(limit, 1)
		f.limiters[host] = l
	}
	return l
}

func blockKey(url string) string {
	return "block:" + url
}

func (f *Fetcher) isBlocked(url string) bool {
	if f.cache == nil {
		return false
	}
	_, err := f.cache.Get(blockKey(url))
	return err == nil
}

// blockPage holds off the url for BlockTime when its final failure was a
// challenge or rate limit. Other pages on the same host are unaffected.
func (f *Fetcher) blockPage(url string, lastErr error) {
	if f.cache == nil {
		return
	}

	var reason errors.ErrorType
	switch {
	case errors.IsType(lastErr, errors.ErrorTypeChallenge):
		reason = errors.ErrorTypeChallenge
	case errors.IsType(lastErr, errors.ErrorTypeRateLimit):
		reason = errors.ErrorTypeRateLimit
	default:
		return
	}

	seconds := strconv.Itoa(int(f.config.BlockTime / time.Second))
	if err := f.cache.Set(blockKey(url), []byte(seconds), f.config.BlockTime); err != nil {
		f.log.Warn().Err(errors.NewCache(url, "failed to set block marker", err)).Msg("Block marker not stored")
		return
	}

	f.metrics.RecordPageBlocked()
	f.log.Warn().
		Str("url", url).
		Dur("block_time", f.config.BlockTime).
		Str("reason", string(reason)).
		Msg("Page blocked after repeated failures")
}

// fetchOutcome labels an attempt result for metrics
func fetchOutcome(err error) string {
	if err == nil {
		return "success"
	}
	var ce *errors.CrawlerError
	if stderrors.As(err, &ce) {
		return string(ce.Type)
	}
	return "error"
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
