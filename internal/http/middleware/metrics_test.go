package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yungbote/collection-listing/internal/observability"
)

func TestMetricsSkipsInfraRoutesAndCollapsesUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/listings", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/healthcheck", "/api/listings", "/api/listings", "/random/a", "/random/b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "collection_listing_api_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// one series for /api/listings 200, one for unmatched 404
	if count != 2 {
		t.Fatalf("series: want=2 got=%d", count)
	}
}
