package worker

import (
	"context"
	"encoding/json"
	"time"

	"sjsage522/couponradar/internal/crawler"
	"sjsage522/couponradar/internal/metrics"
	"sjsage522/couponradar/internal/report"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/services/publisher"
)

// Target is one listing the worker watches
type Target struct {
	Category string
	Params   crawler.RunParams
}

// DealMessage is the payload published for every accepted deal
type DealMessage struct {
	RunID       string                `json:"run_id"`
	Category    string                `json:"category"`
	PublishedAt time.Time             `json:"published_at"`
	Deal        crawler.EvaluatedDeal `json:"deal"`
	Row         report.Row            `json:"row"`
}

// Worker runs the pipeline on an interval and publishes what it finds
type Worker struct {
	runner    crawler.Runner
	targets   []Target
	publisher publisher.Publisher
	interval  time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	runner crawler.Runner,
	targets []Target,
	pub publisher.Publisher,
	interval time.Duration,
) *Worker {
	return &Worker{
		runner:    runner,
		targets:   targets,
		publisher: pub,
		interval:  interval,
		log:       logger.ForWorker(),
		now:       time.Now,
	}
}

// WithMetrics makes the worker count published deals
func (w *Worker) WithMetrics(m *metrics.Metrics) *Worker {
	w.metrics = m
	return w
}

// Start runs until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.runTargets(ctx)
		logger.LogInfo("worker", "Watch cycle finished in %s", time.Since(start))

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// runTargets runs every target one after another and then trims the streams.
// Targets share one fetcher, so they are never run in parallel.
func (w *Worker) runTargets(ctx context.Context) {
	for _, target := range w.targets {
		if ctx.Err() != nil {
			return
		}
		w.runAndPublish(ctx, target)
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		logger.LogError("worker", err, "Stream trimming failed")
	}
}

// runAndPublish runs one target and publishes its deals
func (w *Worker) runAndPublish(ctx context.Context, target Target) int {
	log := w.log.WithField("category", target.Category)

	result, err := w.runner.Run(ctx, target.Params)
	if err != nil {
		log.Warn().Err(err).Msg("Run ended early")
	}
	if result == nil {
		return 0
	}

	published := 0
	for _, deal := range result.Deals {
		data, err := json.Marshal(DealMessage{
			RunID:       result.RunID,
			Category:    target.Category,
			PublishedAt: w.now().UTC(),
			Deal:        deal,
			Row:         report.NewRow(deal),
		})
		if err != nil {
			log.Error().Err(err).Str("url", deal.URL).Msg("Failed to encode deal")
			continue
		}

		if err := w.publisher.Publish(ctx, target.Category, data); err != nil {
			log.Error().Err(err).Str("url", deal.URL).Msg("Failed to publish deal")
			continue
		}
		published++
	}

	w.metrics.RecordPublished(target.Category, published)
	log.Info().
		Str("run_id", result.RunID).
		Int("checked", result.Checked).
		Int("published", published).
		Msg("Published deals")

	return published
}
