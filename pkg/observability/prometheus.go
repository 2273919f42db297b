package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements every hook interface with Prometheus
// collectors. Labels carry floor prefixes, modes, and route patterns only,
// never node labels, so cardinality stays bounded.
type PrometheusHooks struct {
	BuildDuration   *prometheus.HistogramVec
	BuildNodes      *prometheus.GaugeVec
	BuildErrors     *prometheus.CounterVec
	VerticalArcs    prometheus.Gauge
	SearchTotal     *prometheus.CounterVec
	SearchDuration  *prometheus.HistogramVec
	SearchExpanded  *prometheus.HistogramVec
	DirectionSteps  prometheus.Histogram
	CacheOps        *prometheus.CounterVec
	CacheBytes      *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	HTTPInFlight    prometheus.Gauge
}

// NewPrometheusHooks registers the wayfinder collectors with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		BuildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_floor_build_duration_seconds",
			Help:    "Per-floor graph build duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"floor"}),
		BuildNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wayfinder_floor_nodes",
			Help: "Node count of the most recent build per floor",
		}, []string{"floor"}),
		BuildErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_floor_build_errors_total",
			Help: "Floors that failed to build",
		}, []string{"floor"}),
		VerticalArcs: f.NewGauge(prometheus.GaugeOpts{
			Name: "wayfinder_vertical_arcs",
			Help: "Floor-change arcs in the current unified graph",
		}),
		SearchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_route_search_total",
			Help: "Route searches by mode and result",
		}, []string{"mode", "result"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_route_search_duration_seconds",
			Help:    "Route search duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"mode"}),
		SearchExpanded: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_route_search_expanded_nodes",
			Help:    "Nodes expanded per route search",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"mode"}),
		DirectionSteps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfinder_direction_steps",
			Help:    "Instruction steps per synthesized route",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		}),
		CacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfinder_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayfinder_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "wayfinder_http_in_flight_requests",
			Help: "Requests currently being served",
		}),
	}
}

func (h *PrometheusHooks) OnBuildStart(context.Context, string) {}

func (h *PrometheusHooks) OnBuildComplete(_ context.Context, floor string, nodes int, d time.Duration, err error) {
	h.BuildDuration.WithLabelValues(floor).Observe(d.Seconds())
	if err != nil {
		h.BuildErrors.WithLabelValues(floor).Inc()
		return
	}
	h.BuildNodes.WithLabelValues(floor).Set(float64(nodes))
}

func (h *PrometheusHooks) OnUnifyComplete(_ context.Context, _ int, vertical int, _ time.Duration, err error) {
	if err == nil {
		h.VerticalArcs.Set(float64(vertical))
	}
}

func (h *PrometheusHooks) OnSearchComplete(_ context.Context, mode string, expanded int, d time.Duration, err error) {
	h.SearchTotal.WithLabelValues(mode, result(err)).Inc()
	h.SearchDuration.WithLabelValues(mode).Observe(d.Seconds())
	h.SearchExpanded.WithLabelValues(mode).Observe(float64(expanded))
}

func (h *PrometheusHooks) OnSynthesizeComplete(_ context.Context, steps int, _ time.Duration, err error) {
	if err == nil {
		h.DirectionSteps.Observe(float64(steps))
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheOps.WithLabelValues(keyType, "set").Inc()
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {
	h.HTTPInFlight.Inc()
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.HTTPInFlight.Dec()
	h.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
