// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through the registered hooks without
// depending on any particular backend. The defaults do nothing; an
// application registers its own implementations once at startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetWidgetHooks(&myWidgetHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Widget().OnInitStart(ctx, id)
//	// ... run the widget initializer ...
//	observability.Widget().OnInitComplete(ctx, id, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the breakpoint layout manager.
type LayoutHooks interface {
	// OnRebuild records a rebuild of the per-breakpoint layouts, triggered by an
	// edit at source. refit is the number of narrower breakpoints recomputed.
	OnRebuild(ctx context.Context, source string, refit int, duration time.Duration)

	// OnBreakpointChange records the viewport crossing into a new breakpoint.
	OnBreakpointChange(ctx context.Context, from, to string)

	// OnFallback records a breakpoint layout derived from the live grid
	// because nothing was stored for it.
	OnFallback(ctx context.Context, breakpoint string)
}

// =============================================================================
// Widget Hooks
// =============================================================================

// WidgetHooks receives events from the widget runtime manager.
type WidgetHooks interface {
	OnInitStart(ctx context.Context, id string)
	OnInitComplete(ctx context.Context, id string, duration time.Duration, err error)

	// OnStaleWrite records a result dropped because its widget was removed
	// while the initializer was still running.
	OnStaleWrite(ctx context.Context, id string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from layout and preference persistence.
type StoreHooks interface {
	OnSave(ctx context.Context, key string, size int, err error)
	OnLoad(ctx context.Context, key string, found bool, err error)

	// OnDiscard records a stored value thrown away as legacy or malformed.
	OnDiscard(ctx context.Context, key, reason string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnRebuild(context.Context, string, int, time.Duration) {}
func (NoopLayoutHooks) OnBreakpointChange(context.Context, string, string)    {}
func (NoopLayoutHooks) OnFallback(context.Context, string)                    {}

// NoopWidgetHooks is a no-op implementation of WidgetHooks.
type NoopWidgetHooks struct{}

func (NoopWidgetHooks) OnInitStart(context.Context, string)                          {}
func (NoopWidgetHooks) OnInitComplete(context.Context, string, time.Duration, error) {}
func (NoopWidgetHooks) OnStaleWrite(context.Context, string)                         {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, int, error)  {}
func (NoopStoreHooks) OnLoad(context.Context, string, bool, error) {}
func (NoopStoreHooks) OnDiscard(context.Context, string, string)   {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	widgetHooks WidgetHooks = NoopWidgetHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetWidgetHooks registers custom widget hooks.
func SetWidgetHooks(h WidgetHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		widgetHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Widget returns the registered widget hooks.
func Widget() WidgetHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return widgetHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	widgetHooks = NoopWidgetHooks{}
	storeHooks = NoopStoreHooks{}
}
