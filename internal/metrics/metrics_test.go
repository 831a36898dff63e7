package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordFetch("success")
	m.RecordFetch("success")
	m.RecordFetch("challenge")
	m.RecordPageBlocked()
	m.RecordVisit("accepted")
	m.RecordRun(3*time.Second, 2)
	m.RecordPublished("beauty", 2)

	body := scrape(t, m)
	assert.Contains(t, body, `couponradar_fetcher_attempts_total{outcome="success"} 2`)
	assert.Contains(t, body, `couponradar_fetcher_attempts_total{outcome="challenge"} 1`)
	assert.Contains(t, body, `couponradar_fetcher_pages_blocked_total 1`)
	assert.Contains(t, body, `couponradar_pipeline_candidate_visits_total{outcome="accepted"} 1`)
	assert.Contains(t, body, `couponradar_pipeline_runs_total 1`)
	assert.Contains(t, body, `couponradar_pipeline_deals_accepted_total 2`)
	assert.Contains(t, body, `couponradar_pipeline_run_duration_seconds_count 1`)
	assert.Contains(t, body, `couponradar_worker_deals_published_total{category="beauty"} 2`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch("success")
		m.RecordPageBlocked()
		m.RecordVisit("accepted")
		m.RecordRun(time.Second, 1)
		m.RecordPublished("all", 1)
	})
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a, b := New(), New()
	a.RecordFetch("success")
	assert.NotContains(t, scrape(t, b), `outcome="success"`)
}
