package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies by route template, so that
// path parameters do not multiply label values.
func Metrics(m *prometheus.EngineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
