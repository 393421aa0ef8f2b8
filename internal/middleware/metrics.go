package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/storedesk/pkg/metrics"
)

// Metrics records request counts and latency for each sandbox route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		method := c.Request.Method
		metrics.SandboxLatency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		metrics.SandboxRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
