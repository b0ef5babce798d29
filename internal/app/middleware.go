package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
	"github.com/garyellow/faq-linebot-go/internal/logger"
)

// requestIDHeaders are checked in order for an incoming request id.
var requestIDHeaders = []string{"X-Request-Id", "X-Correlation-Id"}

// requestID returns the caller's request id or a fresh UUID.
func requestID(c *gin.Context) string {
	for _, h := range requestIDHeaders {
		if id := c.GetHeader(h); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'")
		c.Next()
	}
}

// loggingMiddleware tags each request with an id and logs it once it
// completes. 5xx logs at Error, 4xx other than 404 at Warn, the rest at Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := requestID(c)
		c.Header("X-Request-Id", id)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))

		c.Next()

		status := c.Writer.Status()
		entry := log.WithRequestID(id).
			WithField("http_method", c.Request.Method).
			WithField("http_path", c.Request.URL.Path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("HTTP request failed")
		case status >= http.StatusBadRequest && status != http.StatusNotFound:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request")
		}
	}
}

// readinessMiddleware turns webhook deliveries away while the service is
// starting or draining so LINE retries them elsewhere.
func (a *Application) readinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.ready.Load() {
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service not ready"})
			return
		}
		c.Next()
	}
}
