package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger on stderr. Tables and CSV output of the CLI go to stdout.
func Init() {
	InitWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// InitWithWriter initializes the default logger on w
func InitWithWriter(w io.Writer) {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// getLogLevel returns the log level from LOG_LEVEL, falling back to the environment name
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("COUPONRADAR_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// New wraps an existing zerolog logger
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Info logs a printf-style message on the default logger
func Info(format string, v ...interface{}) {
	defaultLogger().Info().Msgf(format, v...)
}

func defaultLogger() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

func forComponent(component string) *Logger {
	return defaultLogger().WithField("component", component)
}

// ForFetcher creates a logger for the page fetcher
func ForFetcher() *Logger {
	return forComponent("fetcher")
}

// ForPipeline creates a logger for the pipeline orchestrator
func ForPipeline() *Logger {
	return forComponent("pipeline")
}

// ForWorker creates a logger for the watch worker
func ForWorker() *Logger {
	return forComponent("worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return forComponent("publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return forComponent("cache")
}

// ForServer creates a logger for the dashboard API
func ForServer() *Logger {
	return forComponent("server")
}

// LogError logs err for a component
func LogError(component string, err error, format string, v ...interface{}) {
	defaultLogger().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

// LogInfo logs a printf-style message for a component
func LogInfo(component string, format string, v ...interface{}) {
	defaultLogger().Info().
		Str("component", component).
		Msg(fmt.Sprintf(format, v...))
}
