// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through package-level hook accessors; the binary
// registers a backend at startup. The default hooks do nothing, so the
// routing packages never depend on a metrics framework directly.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetPipelineHooks(hooks)
//	    observability.SetCacheHooks(hooks)
//	    observability.SetHTTPHooks(hooks)
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnBuildStart(ctx, "l1")
//	// ... build the floor graph ...
//	observability.Pipeline().OnBuildComplete(ctx, "l1", nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from graph construction and route queries.
type PipelineHooks interface {
	// Build events, one pair per floor.
	OnBuildStart(ctx context.Context, floor string)
	OnBuildComplete(ctx context.Context, floor string, nodeCount int, duration time.Duration, err error)

	// OnUnifyComplete fires once the per-floor graphs are merged.
	OnUnifyComplete(ctx context.Context, floors, verticalArcs int, duration time.Duration, err error)

	// OnSearchComplete fires after every route search.
	OnSearchComplete(ctx context.Context, mode string, expanded int, duration time.Duration, err error)

	// OnSynthesizeComplete fires after directions are produced.
	OnSynthesizeComplete(ctx context.Context, steps int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the routing server.
type HTTPHooks interface {
	// OnRequest records an incoming request. route is the matched pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response status and latency.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBuildStart(context.Context, string)                                {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, int, time.Duration, error)  {}
func (NoopPipelineHooks) OnUnifyComplete(context.Context, int, int, time.Duration, error)     {}
func (NoopPipelineHooks) OnSearchComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnSynthesizeComplete(context.Context, int, time.Duration, error)     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                       {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
