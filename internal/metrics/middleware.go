package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request count and latency per route.
// The scrape endpoint itself is not recorded.
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath() // route pattern keeps user ids and phrase ids out of labels
		if route == "/metrics" {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		c.Next()

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
