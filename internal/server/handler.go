package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"sjsage522/couponradar/config"
	"sjsage522/couponradar/internal/crawler"
	"sjsage522/couponradar/internal/metrics"
	"sjsage522/couponradar/internal/report"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	msgNoCandidates = "no candidates found"
	msgNoDeals      = "no qualifying deals found"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	cfg     *config.Config
	runner  crawler.Runner
	metrics *metrics.Metrics
	log     *logger.Logger

	// one run at a time keeps request pressure on the marketplace flat
	runMu sync.Mutex
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg *config.Config, runner crawler.Runner) *Handler {
	return &Handler{
		cfg:    cfg,
		runner: runner,
		log:    logger.ForServer(),
	}
}

// WithMetrics exposes m on /metrics
func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "couponradar",
	})
}

// Categories lists the known listing categories
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": crawler.Categories(),
		"default":    h.cfg.DefaultCategory,
	})
}

// Deals runs the pipeline and returns the qualifying deals as JSON rows
func (h *Handler) Deals(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}

	body := gin.H{
		"run_id":      result.RunID,
		"listing_url": result.ListingURL,
		"candidates":  result.Candidates,
		"checked":     result.Checked,
		"count":       len(result.Deals),
		"rows":        report.Rows(result.Deals),
		"deals":       result.Deals,
	}
	if len(result.Visits) > 0 {
		body["visits"] = result.Visits
	}
	if msg := summaryMessage(result); msg != "" {
		body["message"] = msg
	}

	c.JSON(http.StatusOK, body)
}

// DealsCSV runs the pipeline and returns the qualifying deals as a CSV download
func (h *Handler) DealsCSV(c *gin.Context) {
	result, ok := h.run(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+report.CSVFilename+`"`)
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, result.Deals); err != nil {
		h.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to write CSV")
	}
}

// run validates the query, serializes access to the pipeline and runs it.
// It writes the error response itself and reports false when there is nothing to render.
func (h *Handler) run(c *gin.Context) (*crawler.RunResult, bool) {
	params, err := h.parseRunParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	if !h.runMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return nil, false
	}
	defer h.runMu.Unlock()

	result, err := h.runner.Run(c.Request.Context(), params)
	if err != nil {
		h.log.Warn().Err(err).Str("listing_url", params.ListingURL).Msg("Run ended early")
	}
	if result == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed"})
		return nil, false
	}
	return result, true
}

// parseRunParams builds run parameters from the query string, defaulting to configuration
func (h *Handler) parseRunParams(c *gin.Context) (crawler.RunParams, error) {
	category := c.DefaultQuery("category", h.cfg.DefaultCategory)
	params, err := crawler.DefaultRunParams(h.cfg, category)
	if err != nil {
		return params, errors.NewValidation("category", err.Error())
	}

	if raw, ok := c.GetQuery("max_items"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 1 || n > h.cfg.MaxItemsLimit {
			return params, errors.NewValidation("max_items", "must be an integer between 1 and "+strconv.Itoa(h.cfg.MaxItemsLimit))
		}
		params.MaxItems = n
	}

	if raw, ok := c.GetQuery("min_discount"); ok {
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			return params, errors.NewValidation("min_discount", "must be a number between 0 and 100")
		}
		params.MinDiscountRate = rate
	}

	if raw, ok := c.GetQuery("loose"); ok {
		loose, err := strconv.ParseBool(raw)
		if err != nil {
			return params, errors.NewValidation("loose", "must be a boolean")
		}
		params.Loose = loose
	}

	if raw, ok := c.GetQuery("debug"); ok {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return params, errors.NewValidation("debug", "must be a boolean")
		}
		params.Debug = debug
	}

	return params, nil
}

func summaryMessage(result *crawler.RunResult) string {
	switch {
	case result.Candidates == 0:
		return msgNoCandidates
	case len(result.Deals) == 0:
		return msgNoDeals
	default:
		return ""
	}
}
