package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestHooks(t *testing.T) *PrometheusHooks {
	t.Helper()
	return NewPrometheusHooks(prometheus.NewRegistry())
}

func TestPrometheusHooksSearch(t *testing.T) {
	h := newTestHooks(t)
	ctx := context.Background()

	h.OnSearchComplete(ctx, "escalator", 42, time.Millisecond, nil)
	h.OnSearchComplete(ctx, "escalator", 7, time.Millisecond, errors.New("no path"))
	h.OnSearchComplete(ctx, "elevator", 3, time.Millisecond, nil)

	tests := []struct {
		mode, result string
		want         float64
	}{
		{"escalator", "success", 1},
		{"escalator", "error", 1},
		{"elevator", "success", 1},
		{"elevator", "error", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(h.SearchTotal.WithLabelValues(tt.mode, tt.result))
		if got != tt.want {
			t.Errorf("SearchTotal[%s,%s] = %v, want %v", tt.mode, tt.result, got, tt.want)
		}
	}
}

func TestPrometheusHooksBuild(t *testing.T) {
	h := newTestHooks(t)
	ctx := context.Background()

	h.OnBuildComplete(ctx, "g", 120, time.Millisecond, nil)
	h.OnBuildComplete(ctx, "l1", 0, time.Millisecond, errors.New("bad asset"))
	h.OnUnifyComplete(ctx, 1, 6, time.Millisecond, nil)

	if got := testutil.ToFloat64(h.BuildNodes.WithLabelValues("g")); got != 120 {
		t.Errorf("BuildNodes[g] = %v, want 120", got)
	}
	if got := testutil.ToFloat64(h.BuildErrors.WithLabelValues("l1")); got != 1 {
		t.Errorf("BuildErrors[l1] = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.VerticalArcs); got != 6 {
		t.Errorf("VerticalArcs = %v, want 6", got)
	}
}

func TestPrometheusHooksCacheAndHTTP(t *testing.T) {
	h := newTestHooks(t)
	ctx := context.Background()

	h.OnCacheMiss(ctx, "graph")
	h.OnCacheSet(ctx, "graph", 2048)
	h.OnCacheHit(ctx, "graph")
	if got := testutil.ToFloat64(h.CacheBytes.WithLabelValues("graph")); got != 2048 {
		t.Errorf("CacheBytes = %v, want 2048", got)
	}
	if got := testutil.ToFloat64(h.CacheOps.WithLabelValues("graph", "hit")); got != 1 {
		t.Errorf("CacheOps[hit] = %v, want 1", got)
	}

	h.OnRequest(ctx, "POST", "/route")
	if got := testutil.ToFloat64(h.HTTPInFlight); got != 1 {
		t.Errorf("HTTPInFlight = %v, want 1", got)
	}
	h.OnResponse(ctx, "POST", "/route", 404, time.Millisecond)
	if got := testutil.ToFloat64(h.HTTPInFlight); got != 0 {
		t.Errorf("HTTPInFlight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(h.HTTPRequests.WithLabelValues("POST", "/route", "404")); got != 1 {
		t.Errorf("HTTPRequests = %v, want 1", got)
	}
}
