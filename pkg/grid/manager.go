// Package grid keeps one layout per responsive breakpoint in step with the
// live grid.
//
// The Manager treats the layout at the breakpoint being edited as ground
// truth. Layouts for wider breakpoints are left as the user last arranged
// them, and layouts for narrower breakpoints are re-packed from the edit.
// This asymmetry means an edit on a phone-sized viewport never disturbs the
// desktop arrangement, while desktop edits flow down to every smaller size.
package grid

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/notify"
	"github.com/matzehuels/gridboard/pkg/observability"
)

// Source is the live grid: the layout currently rendered for the active
// breakpoint.
type Source interface {
	Layout() layout.Layout
	SetLayout(layout.Layout)
}

// OverrideSource supplies the explicit per-breakpoint sizes of the widgets
// currently on the dashboard.
type OverrideSource interface {
	Overrides() layout.OverridesMap
}

// OverrideFunc adapts a function to OverrideSource.
type OverrideFunc func() layout.OverridesMap

// Overrides calls f.
func (f OverrideFunc) Overrides() layout.OverridesMap { return f() }

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler sets the scheduler used for the post-breakpoint-change swap.
// The default runs it inline.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.sched = s
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager owns the per-breakpoint layouts of one dashboard.
//
// All methods are safe for concurrent use. Deferred continuations acquire the
// lock only when they run.
type Manager struct {
	cfg       Config
	order     []layout.Breakpoint
	src       Source
	overrides OverrideSource
	sched     Scheduler
	logger    *log.Logger

	mu          sync.Mutex
	active      layout.Breakpoint
	stored      map[layout.Breakpoint]layout.Layout
	published   map[layout.Breakpoint]layout.Layout
	initialized bool

	notifier notify.Notifier
}

// New creates a Manager and derives every breakpoint's layout from the live
// grid, taken as authored for the design breakpoint.
func New(cfg Config, src Source, overrides OverrideSource, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "grid manager needs a live grid")
	}
	if overrides == nil {
		overrides = OverrideFunc(func() layout.OverridesMap { return nil })
	}

	m := &Manager{
		cfg:       cfg,
		order:     layout.Order(cfg.Thresholds),
		src:       src,
		overrides: overrides,
		sched:     Immediate{},
		logger:    log.Default(),
		active:    cfg.DesignBreakpoint,
		stored:    make(map[layout.Breakpoint]layout.Layout),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.mu.Lock()
	m.published = m.buildAllLocked(cfg.DesignBreakpoint, nil)
	m.mu.Unlock()
	return m, nil
}

func (m *Manager) fitOptions() layout.FitOptions {
	return layout.FitOptions{Overrides: m.overrides.Overrides(), Order: m.order}
}

// BuildAll takes sourceLayout as ground truth for source and derives every
// other breakpoint from it, replacing stored and published layouts. A nil
// sourceLayout means the live grid.
func (m *Manager) BuildAll(source layout.Breakpoint, sourceLayout layout.Layout) map[layout.Breakpoint]layout.Layout {
	m.mu.Lock()
	m.published = m.buildAllLocked(source, sourceLayout)
	out := copyAll(m.published)
	m.mu.Unlock()

	m.notifier.Bump()
	return out
}

func (m *Manager) buildAllLocked(source layout.Breakpoint, sourceLayout layout.Layout) map[layout.Breakpoint]layout.Layout {
	if sourceLayout == nil {
		sourceLayout = m.src.Layout()
	}
	opts := m.fitOptions()
	layouts := make(map[layout.Breakpoint]layout.Layout, len(m.order))

	cp := layout.Copy(sourceLayout)
	m.stored[source] = cp
	layouts[source] = cp

	for _, bp := range m.order {
		if bp == source {
			continue
		}
		fitted := layout.FitToColumns(sourceLayout, m.cfg.Columns[bp], bp, opts)
		m.stored[bp] = fitted
		layouts[bp] = fitted
	}
	return layouts
}

// Rebuild recomputes the per-breakpoint layouts after the live grid was
// edited at source.
//
// It does nothing until the first HandleBreakpointChange, since the
// breakpoint assumed at construction may not be the one actually rendered.
// Wider breakpoints keep their stored layout, source takes a copy of the
// live grid and narrower breakpoints are re-fitted from it.
func (m *Manager) Rebuild(ctx context.Context, source layout.Breakpoint) {
	start := time.Now()

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return
	}
	if source == "" {
		source = m.active
	}

	live := m.src.Layout()
	sourceIdx := indexOf(m.order, source)
	opts := m.fitOptions()
	layouts := make(map[layout.Breakpoint]layout.Layout, len(m.order))
	refit := 0

	cp := layout.Copy(live)
	m.stored[source] = cp

	for i, bp := range m.order {
		switch {
		case bp == source:
			layouts[bp] = cp
		case i < sourceIdx:
			if kept, ok := m.stored[bp]; ok {
				layouts[bp] = kept
				continue
			}
			observability.Layout().OnFallback(ctx, string(bp))
			layouts[bp] = layout.FitToColumns(live, m.cfg.Columns[bp], bp, opts)
		default:
			fitted := layout.FitToColumns(live, m.cfg.Columns[bp], bp, opts)
			m.stored[bp] = fitted
			layouts[bp] = fitted
			refit++
		}
	}
	m.published = layouts
	m.mu.Unlock()

	elapsed := time.Since(start)
	m.logger.Debug("rebuilt breakpoint layouts", "source", source, "refit", refit, "duration", elapsed)
	observability.Layout().OnRebuild(ctx, string(source), refit, elapsed)
	m.notifier.Bump()
}

// Reinitialize discards every stored layout and rebuilds all breakpoints from
// the live grid, taken as authored for source.
func (m *Manager) Reinitialize(source layout.Breakpoint) {
	m.mu.Lock()
	m.stored = make(map[layout.Breakpoint]layout.Layout)
	m.published = m.buildAllLocked(source, nil)
	m.mu.Unlock()

	m.notifier.Bump()
}

// Restore replaces all layouts with previously saved ones, verbatim. Items
// whose id is not in ids are dropped. Breakpoints missing from saved are left
// empty and derived from the live grid when first needed.
func (m *Manager) Restore(saved map[layout.Breakpoint]layout.Layout, ids map[layout.ID]struct{}) {
	m.mu.Lock()
	m.stored = make(map[layout.Breakpoint]layout.Layout)
	layouts := make(map[layout.Breakpoint]layout.Layout, len(saved))
	for _, bp := range m.order {
		l, ok := saved[bp]
		if !ok || l == nil {
			continue
		}
		filtered := l.Filter(ids)
		m.stored[bp] = filtered
		layouts[bp] = filtered
	}
	m.published = layouts
	m.mu.Unlock()

	m.notifier.Bump()
}

// HandleBreakpointChange is called by the renderer when the viewport crosses
// a threshold. It marks the manager initialized, makes bp active and, on the
// next tick, swaps the live grid to bp's layout. The renderer's own layout
// argument is ignored.
func (m *Manager) HandleBreakpointChange(ctx context.Context, bp layout.Breakpoint, _ layout.Layout) error {
	m.mu.Lock()
	if _, ok := m.cfg.Columns[bp]; !ok || indexOf(m.order, bp) < 0 {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidBreakpoint, "breakpoint %q is not configured", bp)
	}
	prev := m.active
	m.initialized = true
	m.active = bp
	m.mu.Unlock()

	m.logger.Debug("breakpoint changed", "from", prev, "to", bp)
	observability.Layout().OnBreakpointChange(ctx, string(prev), string(bp))
	m.notifier.Bump()

	m.sched.Defer(func() { m.swapTo(ctx, bp) })
	return nil
}

func (m *Manager) swapTo(ctx context.Context, bp layout.Breakpoint) {
	m.mu.Lock()
	next, ok := m.published[bp]
	if !ok {
		observability.Layout().OnFallback(ctx, string(bp))
		next = layout.FitToColumns(m.src.Layout(), m.cfg.Columns[bp], bp, m.fitOptions())
		m.stored[bp] = next
		m.published[bp] = next
	}
	next = layout.Copy(next)
	m.mu.Unlock()

	m.src.SetLayout(next)
}

// Layout returns a copy of the published layout for bp.
func (m *Manager) Layout(bp layout.Breakpoint) (layout.Layout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.published[bp]
	if !ok {
		return nil, false
	}
	return layout.Copy(l), true
}

// Layouts returns a copy of every published layout.
func (m *Manager) Layouts() map[layout.Breakpoint]layout.Layout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyAll(m.published)
}

// Active returns the active breakpoint.
func (m *Manager) Active() layout.Breakpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveColumns returns the column count of the active breakpoint.
func (m *Manager) ActiveColumns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Columns[m.active]
}

// IsMobile reports whether the active breakpoint is one of the two narrowest.
func (m *Manager) IsMobile() bool {
	bp := m.Active()
	return bp == layout.XS || bp == layout.XXS
}

// Initialized reports whether the renderer has reported a breakpoint yet.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Order returns the breakpoints, widest first.
func (m *Manager) Order() []layout.Breakpoint {
	return append([]layout.Breakpoint(nil), m.order...)
}

// Config returns the grid configuration.
func (m *Manager) Config() Config { return m.cfg }

// Version returns a counter bumped on every change to the published layouts
// or the active breakpoint.
func (m *Manager) Version() uint64 { return m.notifier.Version() }

// Subscribe registers fn to be called after every change.
func (m *Manager) Subscribe(fn func(version uint64)) (unsubscribe func()) {
	return m.notifier.Subscribe(fn)
}

func indexOf(order []layout.Breakpoint, bp layout.Breakpoint) int {
	for i, b := range order {
		if b == bp {
			return i
		}
	}
	return -1
}

func copyAll(in map[layout.Breakpoint]layout.Layout) map[layout.Breakpoint]layout.Layout {
	out := make(map[layout.Breakpoint]layout.Layout, len(in))
	for bp, l := range in {
		out[bp] = layout.Copy(l)
	}
	return out
}
