package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/callgenie/saathi-backend/pkg/metrics"
)

// MetricsMiddleware records per-endpoint request counts and latency.
// Unmatched paths are recorded under the raw URL path.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		metrics.RecordRequest(endpoint, c.Writer.Status() < 400, time.Since(start))
	}
}
