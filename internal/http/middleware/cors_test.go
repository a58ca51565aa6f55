package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/api/listings", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func preflight(r http.Handler, origin, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSOrigins(t *testing.T) {
	cases := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{name: "default dev origin", origin: "http://localhost:5173", allowed: true},
		{name: "default rejects others", origin: "https://evil.example", allowed: false},
		{name: "configured origin", origins: []string{"https://www.example.org"}, origin: "https://www.example.org", allowed: true},
		{name: "configured replaces defaults", origins: []string{"https://www.example.org"}, origin: "http://localhost:5173", allowed: false},
	}
	for _, tc := range cases {
		rec := preflight(corsRouter(tc.origins), tc.origin, http.MethodGet)
		got := rec.Header().Get("Access-Control-Allow-Origin")
		want := ""
		if tc.allowed {
			want = tc.origin
		}
		if got != want {
			t.Fatalf("%s: allow-origin want=%q got=%q", tc.name, want, got)
		}
	}
}

func TestCORSAllowsDeleteAndExposesTraceHeaders(t *testing.T) {
	r := corsRouter(nil)

	rec := preflight(r, "http://localhost:3000", http.MethodDelete)
	if methods := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(methods, http.MethodDelete) {
		t.Fatalf("allow-methods: want DELETE got=%q", methods)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	if exposed := got.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(strings.ToLower(exposed), "x-trace-id") {
		t.Fatalf("expose-headers: want X-Trace-Id got=%q", exposed)
	}
}
