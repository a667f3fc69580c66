package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/matching-server/metrics"
)

// Metrics records request count, latency and in-flight gauge per route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.TrackInFlight()
		defer done()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
