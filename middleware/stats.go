package middleware

import (
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestTracker receives one entry per served request.
type RequestTracker interface {
	TrackRequest(endpoint, clientIP string, loadTime time.Duration, status int)
}

// Stats tracks request counts, latency and client IPs. Requests that match
// no route are counted under "unmatched".
func Stats(tracker RequestTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := "unmatched"
		if route := c.FullPath(); route != "" {
			endpoint = path.Base(route)
		}
		tracker.TrackRequest(endpoint, c.ClientIP(), time.Since(start), c.Writer.Status())
	}
}

// Logger logs each completed request.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}
