package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
)

// Gin context keys
const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyTraceID       = "traceId"
	ContextKeySpanID        = "spanId"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// probePaths are never logged or traced
var probePaths = []string{"/health", "/ready", "/metrics"}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// echoID reads header, generates a UUID when it is empty, echoes it back and
// stores it on both the gin and the request context.
func echoID(header, key string, attach func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(key, id)
		c.Header(header, id)
		c.Request = c.Request.WithContext(attach(c.Request.Context(), id))
		c.Next()
	}
}

// RequestID propagates X-Request-ID so service loggers can pick it up
func RequestID() gin.HandlerFunc {
	return echoID(HeaderRequestID, ContextKeyRequestID, logging.ContextWithRequestID)
}

// CorrelationID propagates X-Correlation-ID
func CorrelationID() gin.HandlerFunc {
	return echoID(HeaderCorrelationID, ContextKeyCorrelationID, logging.ContextWithCorrelationID)
}

// LoggerConfig holds logger middleware configuration
type LoggerConfig struct {
	Logger       *slog.Logger
	ExcludePaths []string
}

// DefaultLoggerConfig skips the probe and scrape endpoints
func DefaultLoggerConfig(logger *slog.Logger) *LoggerConfig {
	return &LoggerConfig{Logger: logger, ExcludePaths: probePaths}
}

// Logger logs one line per request
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig(logger))
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LoggerWithConfig logs requests outside ExcludePaths
func LoggerWithConfig(config *LoggerConfig) gin.HandlerFunc {
	excluded := pathSet(config.ExcludePaths)

	return func(c *gin.Context) {
		if _, ok := excluded[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int64("latencyMs", time.Since(start).Milliseconds()),
			slog.String("clientIP", c.ClientIP()),
			slog.String("userAgent", c.Request.UserAgent()),
			slog.String("requestId", GetRequestID(c)),
			slog.String("correlationId", GetCorrelationID(c)),
		}
		if traceID := GetTraceID(c); traceID != "" {
			attrs = append(attrs, slog.String("traceId", traceID))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}

		config.Logger.LogAttrs(c.Request.Context(), statusLevel(status), "HTTP request", attrs...)
	}
}

// Recovery turns a panic into a 500 with the standard error body
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("Panic recovered",
				"error", rec,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"requestId", GetRequestID(c),
			)
			AbortWithAppError(c, errors.ErrInternal("An unexpected error occurred"))
		}()
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string     { return c.GetString(ContextKeyRequestID) }
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }

// GetTraceID returns the id TracingMiddleware stored, or ""
func GetTraceID(c *gin.Context) string { return c.GetString(ContextKeyTraceID) }
