package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collection-listing/internal/observability"
)

// routeUnmatched labels requests no route matched, keeping label cardinality
// independent of client-supplied paths.
const routeUnmatched = "unmatched"

// infraRoutes are served to infrastructure, not users.
var infraRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// Metrics records API request count, latency and inflight gauge per route.
// Infrastructure routes are not recorded.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if infraRoutes[c.FullPath()] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = routeUnmatched
		}
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
