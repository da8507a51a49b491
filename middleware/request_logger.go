package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/monitoring"
)

// RequestLogger logs every handled request and records its duration.
// Requests that matched no route are recorded under "unmatched" to keep
// the route label bounded.
func RequestLogger(log logr.Logger) gin.HandlerFunc {
	log = log.WithName("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		monitoring.RecordHTTPRequest(c.Request.Method, route, status, duration)

		keysAndValues := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", duration.String(),
		}
		if len(c.Errors) > 0 {
			log.Error(c.Errors.Last(), "request failed", keysAndValues...)
			return
		}
		log.V(1).Info("request handled", keysAndValues...)
	}
}
