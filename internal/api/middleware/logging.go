// Package middleware provides HTTP middleware for the paleofed REST API,
// including API key authentication, request logging, and correlation IDs.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationIDHeader = "X-Correlation-ID"

// CorrelationID assigns (or propagates) a per-request correlation ID,
// echoed back on the response and available to handlers via
// c.GetString("correlation_id").
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("correlation_id", id)
		c.Writer.Header().Set(correlationIDHeader, id)
		c.Next()
	}
}

// SlogRequestLogger logs one structured line per request, tagged with its
// correlation ID.
func SlogRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if logger != nil {
			logger.Info("api request",
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
				"correlation_id", c.GetString("correlation_id"),
			)
		}
	}
}
