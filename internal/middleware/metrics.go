package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/service"
)

// Metrics times every request and feeds the prometheus collectors. Uses the
// route template as the path label so ids don't explode cardinality.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
