package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/couponradar/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Target marketplace
	BaseURL         string
	DefaultCategory string

	// Run parameters, overridable per run
	MaxItems        int
	MaxItemsLimit   int
	MinDiscountRate float64
	LooseMode       bool
	DebugOutput     bool

	// Fetcher configuration
	FetchRetries      int
	FetchTimeout      time.Duration
	BackoffBase       time.Duration
	BackoffStep       time.Duration
	BackoffJitter     time.Duration
	MinRequestSpacing time.Duration
	UserAgent         string
	AcceptLanguage    string
	ChallengeMarkers  []string

	// Pacing between product visits
	PaceMin time.Duration
	PaceMax time.Duration

	// Memcache configuration, empty address keeps block markers in memory
	MemcacheAddr string
	BlockTime    time.Duration

	// Redis configuration, used by the watch worker
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	WatchInterval        time.Duration
	WatchCategories      []string

	// Dashboard API
	ServerPort string

	// Environment
	Environment string
}

const defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "https://www.amazon.com"), "/"),
		DefaultCategory:      getEnv("DEFAULT_CATEGORY", "all"),
		MaxItems:             getEnvInt("MAX_ITEMS", 30),
		MaxItemsLimit:        getEnvInt("MAX_ITEMS_LIMIT", 80),
		MinDiscountRate:      getEnvFloat("MIN_DISCOUNT_RATE", 30),
		LooseMode:            getEnvBool("LOOSE_MODE", true),
		DebugOutput:          getEnvBool("DEBUG_OUTPUT", true),
		FetchRetries:         getEnvInt("FETCH_RETRIES", 3),
		FetchTimeout:         time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		BackoffBase:          time.Duration(getEnvInt("BACKOFF_BASE_MS", 500)) * time.Millisecond,
		BackoffStep:          time.Duration(getEnvInt("BACKOFF_STEP_MS", 800)) * time.Millisecond,
		BackoffJitter:        time.Duration(getEnvInt("BACKOFF_JITTER_MS", 400)) * time.Millisecond,
		MinRequestSpacing:    time.Duration(getEnvInt("MIN_REQUEST_SPACING_MS", 500)) * time.Millisecond,
		UserAgent:            getEnv("USER_AGENT", defaultUserAgent),
		AcceptLanguage:       getEnv("ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		ChallengeMarkers:     splitList(getEnv("CHALLENGE_MARKERS", "captcha")),
		PaceMin:              time.Duration(getEnvInt("PACE_MIN_MS", 800)) * time.Millisecond,
		PaceMax:              time.Duration(getEnvInt("PACE_MAX_MS", 1500)) * time.Millisecond,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		BlockTime:            time.Duration(getEnvInt("BLOCK_TIME_SECONDS", 0)) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "coupondeals"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		WatchInterval:        time.Duration(getEnvInt("WATCH_INTERVAL_SECONDS", 1800)) * time.Second,
		WatchCategories:      splitList(getEnv("WATCH_CATEGORIES", "all")),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		Environment:          getEnv("COUPONRADAR_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.NewConfiguration(fmt.Sprintf("BASE_URL must be an http(s) URL, got %q", c.BaseURL), nil)
	}
	if c.MaxItemsLimit < 1 {
		return errors.NewConfiguration("MAX_ITEMS_LIMIT must be at least 1", nil)
	}
	if c.MaxItems < 1 || c.MaxItems > c.MaxItemsLimit {
		return errors.NewConfiguration(fmt.Sprintf("MAX_ITEMS must be between 1 and %d, got %d", c.MaxItemsLimit, c.MaxItems), nil)
	}
	if c.MinDiscountRate < 0 || c.MinDiscountRate > 100 {
		return errors.NewConfiguration(fmt.Sprintf("MIN_DISCOUNT_RATE must be between 0 and 100, got %v", c.MinDiscountRate), nil)
	}
	if c.FetchRetries < 1 {
		return errors.NewConfiguration("FETCH_RETRIES must be at least 1", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.PaceMin < 0 || c.PaceMax < c.PaceMin {
		return errors.NewConfiguration(fmt.Sprintf("pacing window is invalid: min %s, max %s", c.PaceMin, c.PaceMax), nil)
	}
	if c.WatchInterval <= 0 {
		return errors.NewConfiguration("WATCH_INTERVAL_SECONDS must be positive", nil)
	}
	if c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
