package middleware

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/checkout-service/pkg/metrics"
)

// Config selects the optional parts of the middleware chain
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	ServiceName    string
	EnableCORS     bool
	EnableTracing  bool
	TrustedProxies []string
}

func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{Logger: logger, ServiceName: serviceName, EnableCORS: true}
}

// Setup installs the chain in order: recovery, ids, tracing, metrics,
// access log, CORS and error rendering.
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
			config.Logger.Warn("Ignoring trusted proxies", "error", err)
		}
	}

	chain := []gin.HandlerFunc{Recovery(config.Logger), RequestID(), CorrelationID()}
	if config.EnableTracing {
		chain = append(chain, TracingMiddleware(DefaultTracingConfig(config.ServiceName)))
	}
	if config.Metrics != nil {
		chain = append(chain, MetricsMiddleware(config.Metrics))
	}
	chain = append(chain, Logger(config.Logger))
	if config.EnableCORS {
		chain = append(chain, CORS())
	}
	chain = append(chain, ErrorHandler(config.Logger))
	router.Use(chain...)

	router.HandleMethodNotAllowed = true
	router.NoRoute(NoRoute())
	router.NoMethod(NoMethod())
}

// CORS allows any origin. Preflight requests are answered by the
// middleware and never reach a route.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID, HeaderCorrelationID},
		ExposeHeaders:   []string{"Content-Length", HeaderRequestID, HeaderCorrelationID},
		MaxAge:          24 * time.Hour,
	})
}

// HealthCheck is the liveness probe
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// ReadinessCheck runs every check and reports 503 with the failures if
// any of them errors.
func ReadinessCheck(serviceName string, checks map[string]func() error) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		failed := map[string]string{}
		for _, name := range names {
			if err := checks[name](); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"service": serviceName,
			"checks":  failed,
		})
	}
}

func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, newErrorResponse(c, "ROUTE_NOT_FOUND", "The requested resource was not found", nil))
	}
}

func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, newErrorResponse(c, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource", nil))
	}
}

// WrapHandler adapts an error-returning handler; the error is rendered by
// ErrorHandler.
func WrapHandler(handler func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(c); err != nil {
			_ = c.Error(err)
		}
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
