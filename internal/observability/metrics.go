package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	resolveTotal    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	resolveLookups  prometheus.Histogram
	resolveSkips    *prometheus.CounterVec
	resolveDepth    prometheus.Histogram
	cacheResults    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_listing_api_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collection_listing_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collection_listing_api_inflight_requests",
			Help: "HTTP requests currently being served",
		}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_listing_aggregation_resolve_total",
			Help: "Aggregation resolutions by source (resolved or cached)",
		}, []string{"source"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collection_listing_aggregation_resolve_duration_seconds",
			Help:    "Aggregation resolution latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		resolveLookups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collection_listing_aggregation_lookups",
			Help:    "Resource lookup batches per resolution",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		resolveSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_listing_aggregation_skips_total",
			Help: "References not followed, by reason",
		}, []string{"reason"}),
		resolveDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collection_listing_aggregation_depth",
			Help:    "Deepest recursion level visited per resolution",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_listing_aggregation_cache_total",
			Help: "Aggregation cache lookups by result",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.resolveTotal,
		m.resolveDuration,
		m.resolveLookups,
		m.resolveSkips,
		m.resolveDepth,
		m.cacheResults,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveResolve records one resolver run. skips maps reason to count.
func (m *Metrics) ObserveResolve(dur time.Duration, lookups, depth int, skips map[string]int) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues("resolved").Inc()
	m.resolveDuration.Observe(dur.Seconds())
	m.resolveLookups.Observe(float64(lookups))
	m.resolveDepth.Observe(float64(depth))
	for reason, n := range skips {
		m.resolveSkips.WithLabelValues(reason).Add(float64(n))
	}
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheResults.WithLabelValues("hit").Inc()
		m.resolveTotal.WithLabelValues("cached").Inc()
		return
	}
	m.cacheResults.WithLabelValues("miss").Inc()
}
