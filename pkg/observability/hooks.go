// Package observability lets callers observe stackdepth without tying the
// libraries to a metrics or tracing backend.
//
// Three hook interfaces cover the events worth watching: [PipelineHooks]
// (runs, passes, renders), [CacheHooks] and [HTTPHooks]. Libraries fetch
// the registered implementation on every event; main registers one at
// startup. Until then every hook is a no-op.
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetPipelineHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
//	// in a library
//	observability.Pipeline().OnPassComplete(ctx, scene, frame, stats, elapsed)
//
// [LogHooks] forwards every event to a charmbracelet logger at debug level.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/stackdepth/pkg/stacking"
)

// PipelineHooks receives events from scene runs.
type PipelineHooks interface {
	// Run events
	OnRunStart(ctx context.Context, scene string, nodes int)
	OnRunComplete(ctx context.Context, scene string, frames int, duration time.Duration, err error)

	// Pass events, once per frame of a run.
	OnPassStart(ctx context.Context, scene string, frame, pending int)
	OnPassComplete(ctx context.Context, scene string, frame int, stats stacking.PassStats, duration time.Duration)

	// Render events
	OnRenderStart(ctx context.Context, scene, format string)
	OnRenderComplete(ctx context.Context, scene, format string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// keyType is "result" or "render".
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// route is the matched pattern, e.g. "/scenes/{id}".
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnPassStart(context.Context, string, int, int)                    {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, string)                    {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopPipelineHooks) OnPassComplete(context.Context, string, int, stacking.PassStats, time.Duration) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// hookSet is immutable once published.
type hookSet struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

var (
	registry atomic.Pointer[hookSet]
	setMu    sync.Mutex
)

func init() { Reset() }

// update applies fn to a copy of the current set and publishes it.
func update(fn func(*hookSet)) {
	setMu.Lock()
	defer setMu.Unlock()
	next := *registry.Load()
	fn(&next)
	registry.Store(&next)
}

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return registry.Load().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return registry.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return registry.Load().http }

// Reset restores the no-op hooks. Tests call it in cleanup.
func Reset() {
	setMu.Lock()
	defer setMu.Unlock()
	registry.Store(&hookSet{
		pipeline: NoopPipelineHooks{},
		cache:    NoopCacheHooks{},
		http:     NoopHTTPHooks{},
	})
}
