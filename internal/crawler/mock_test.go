package crawler

import (
	"context"
	"sync"
	"time"
)

// stubFetcher serves markup from a map keyed by URL
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages}
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, maxRetries int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, url)
	markup, ok := s.pages[url]
	return markup, ok
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func mustDocument(markup string) DocumentView {
	doc, err := NewDocument(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

// productPage renders a product page in the current marketplace layout.
// Empty arguments leave the corresponding node out.
func productPage(title, original, deal, couponText string) string {
	page := "<html><body>"
	if title != "" {
		page += `<span id="productTitle"> ` + title + ` </span>`
	}
	if deal != "" {
		page += `<div id="corePriceDisplay_desktop_feature_div"><span class="a-price"><span class="a-offscreen">` + deal + `</span></span></div>`
	}
	if original != "" {
		page += `<div id="listPrice"><span class="a-text-price"><span class="a-offscreen">` + original + `</span></span></div>`
	}
	if couponText != "" {
		page += `<div id="couponBadge_feature_div"><label>` + couponText + `</label></div>`
	}
	return page + "</body></html>"
}
