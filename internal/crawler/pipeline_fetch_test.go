package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sjsage522/couponradar/services/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingShop serves pages by path and counts requests per path
type countingShop struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
}

func newCountingShop(t *testing.T, pages map[string]string) *countingShop {
	s := &countingShop{hits: make(map[string]int)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *countingShop) hitsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func TestPipelineChallengedCandidateDoesNotBlockOthers(t *testing.T) {
	shop := newCountingShop(t, map[string]string{
		"/deals": listingWith("/dp/A", "/dp/B"),
		"/dp/A":  `<html><body><form action="/errors/validateCaptcha">Type the characters</form></body></html>`,
		// 50 - 10 = 40 of 100: 60.0% off
		"/dp/B": productPage("Healthy", "$100.00", "$50.00", "Save $10.00 with coupon"),
	})

	memory := cache.NewMemoryCache()
	config := testFetchConfig()
	config.BlockTime = time.Minute
	fetcher := newTestFetcher(config, memory)

	pipeline := NewPipeline(fetcher, DefaultSelectors(), shop.server.URL, 0, 0)
	pipeline.sleep = noSleep

	params := RunParams{
		ListingURL:      shop.server.URL + "/deals",
		MaxItems:        30,
		MinDiscountRate: decimal.Zero,
		Loose:           true,
		Debug:           true,
		MaxRetries:      2,
	}

	result, err := pipeline.Run(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Visits, 2)
	assert.Equal(t, OutcomeFetchFailed, result.Visits[0].Outcome)
	assert.Equal(t, OutcomeAccepted, result.Visits[1].Outcome)
	require.Len(t, result.Deals, 1)
	assert.Equal(t, "Healthy", result.Deals[0].Title)
	assert.Equal(t, 2, shop.hitsFor("/dp/A"))

	// only the challenged page is held off on the next run
	result, err = pipeline.Run(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Candidates)
	require.Len(t, result.Deals, 1)
	assert.Equal(t, "Healthy", result.Deals[0].Title)
	assert.Equal(t, 2, shop.hitsFor("/dp/A"))
	assert.Equal(t, 2, shop.hitsFor("/dp/B"))
	assert.Equal(t, 2, shop.hitsFor("/deals"))
}

func TestPipelineWithoutBlockTimeRetriesChallengedPage(t *testing.T) {
	shop := newCountingShop(t, map[string]string{
		"/deals": listingWith("/dp/A"),
		"/dp/A":  `<html><body>captcha</body></html>`,
	})

	config := testFetchConfig()
	config.BlockTime = 0
	fetcher := newTestFetcher(config, cache.NewMemoryCache())

	pipeline := NewPipeline(fetcher, DefaultSelectors(), shop.server.URL, 0, 0)
	pipeline.sleep = noSleep
	params := RunParams{
		ListingURL: shop.server.URL + "/deals",
		MaxItems:   30,
		Loose:      true,
		MaxRetries: 1,
	}

	for i := 0; i < 2; i++ {
		_, err := pipeline.Run(context.Background(), params)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, shop.hitsFor("/dp/A"))
}
