package server

import (
	"time"

	"sjsage522/couponradar/logger"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware logs each request through the server component logger
func LoggerMiddleware() gin.HandlerFunc {
	log := logger.ForServer()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
