package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/pkg/metrics"
)

// Metrics records request counts and latency per route. The route template
// (e.g. /api/work-orders/:id) is used as the endpoint label to keep
// cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
