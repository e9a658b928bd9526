// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and carries no dependency on a particular
// backend. Consumers register hooks at startup to receive events about format
// passes, rendering and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the layout packages never
// import an observability framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetFormatHooks(telemetry.NewFormatHooks())
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Format().OnFormatStart(ctx, root, nodeCount)
//	// ... run the passes ...
//	observability.Format().OnFormatComplete(ctx, root, FormatStats{...}, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Format Hooks
// =============================================================================

// FormatStats summarizes one completed format request.
type FormatStats struct {
	Formatter   string
	Nodes       int
	KnotsAdded  int
	Passes      int
	Incomplete  bool
	Duration    time.Duration
	GroupsMoved int
}

// FormatHooks receives events from the layout engine.
type FormatHooks interface {
	// OnFormatStart fires before the passes for a root begin.
	OnFormatStart(ctx context.Context, root string, nodeCount int)
	// OnFormatComplete fires after a root was formatted or failed.
	OnFormatComplete(ctx context.Context, root string, stats FormatStats, err error)
	// OnFormatSkipped fires when the snapshot showed nothing changed.
	OnFormatSkipped(ctx context.Context, root string)
	// OnFormatDeferred fires when formatting waits for node sizes.
	OnFormatDeferred(ctx context.Context, root string, missing int)
	// OnGroupIgnored fires for each group left out of a pass.
	OnGroupIgnored(ctx context.Context, group, reason string)
	// OnIncomplete fires when overlaps persist after every retry.
	OnIncomplete(ctx context.Context, root string, overlaps int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the renderers.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopFormatHooks is a no-op implementation of FormatHooks.
type NoopFormatHooks struct{}

func (NoopFormatHooks) OnFormatStart(context.Context, string, int)                    {}
func (NoopFormatHooks) OnFormatComplete(context.Context, string, FormatStats, error) {}
func (NoopFormatHooks) OnFormatSkipped(context.Context, string)                       {}
func (NoopFormatHooks) OnFormatDeferred(context.Context, string, int)                 {}
func (NoopFormatHooks) OnGroupIgnored(context.Context, string, string)                {}
func (NoopFormatHooks) OnIncomplete(context.Context, string, int)                     {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                                {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	formatHooks FormatHooks = NoopFormatHooks{}
	renderHooks RenderHooks = NoopRenderHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetFormatHooks registers custom format hooks.
// This should be called once at application startup before any formatting.
func SetFormatHooks(h FormatHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		formatHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
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

// Format returns the registered format hooks.
func Format() FormatHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return formatHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
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
	formatHooks = NoopFormatHooks{}
	renderHooks = NoopRenderHooks{}
	httpHooks = NoopHTTPHooks{}
}
