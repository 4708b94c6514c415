package widget

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/notify"
	"github.com/matzehuels/gridboard/pkg/observability"
	"github.com/matzehuels/gridboard/pkg/period"
)

// LiveLayout exposes the current grid membership.
type LiveLayout interface {
	Layout() layout.Layout
}

// PeriodSource supplies the global period passed to initializers.
type PeriodSource interface {
	Period() period.Period
}

// PeriodFunc adapts a function to PeriodSource.
type PeriodFunc func() period.Period

// Period calls f.
func (f PeriodFunc) Period() period.Period { return f() }

// Resizer resizes a widget on the live grid.
type Resizer func(id layout.ID, h, w int)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithConcurrency bounds how many initializers InitializeAll runs at once.
// Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(m *Manager) { m.concurrency = n }
}

// WithResizer enables the ResizeWidget callback.
func WithResizer(r Resizer) Option {
	return func(m *Manager) { m.resize = r }
}

// Manager owns the runtime records and session params of a dashboard's
// widgets and moves widgets between the dashboard and palette collections.
//
// Removing a widget discards its runtime record. Any initializer or data push
// still in flight for it is dropped when it completes, so a removed widget is
// never resurrected by a late result. Widget-owned resources are not the
// Manager's concern; callers release them through Widget.Release.
type Manager struct {
	dashboard   *Collection
	palette     *Collection
	live        LiveLayout
	period      PeriodSource
	resize      Resizer
	concurrency int
	logger      *log.Logger

	mu      sync.Mutex
	runtime map[layout.ID]Runtime
	params  map[layout.ID]map[string]any
	// gens is bumped when a widget's record is discarded; results carrying an
	// older generation are stale.
	gens map[layout.ID]uint64

	notifier notify.Notifier
}

// NewManager creates a Manager.
func NewManager(dashboard, palette *Collection, live LiveLayout, ps PeriodSource, opts ...Option) *Manager {
	if dashboard == nil {
		dashboard = NewCollection()
	}
	if palette == nil {
		palette = NewCollection()
	}
	if ps == nil {
		ps = PeriodFunc(func() period.Period { return period.Default(time.Now()) })
	}
	m := &Manager{
		dashboard: dashboard,
		palette:   palette,
		live:      live,
		period:    ps,
		logger:    log.Default(),
		runtime:   make(map[layout.ID]Runtime),
		params:    make(map[layout.ID]map[string]any),
		gens:      make(map[layout.ID]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dashboard returns the collection of widgets on the grid.
func (m *Manager) Dashboard() *Collection { return m.dashboard }

// Palette returns the collection of widgets available to add.
func (m *Manager) Palette() *Collection { return m.palette }

// runtimeLocked returns the record for id, creating it in the loading state.
func (m *Manager) runtimeLocked(id layout.ID) Runtime {
	rt, ok := m.runtime[id]
	if !ok {
		rt = Runtime{Loading: true}
		m.runtime[id] = rt
	}
	return rt
}

func (m *Manager) update(id layout.ID, fn func(*Runtime)) {
	m.mu.Lock()
	rt := m.runtimeLocked(id)
	fn(&rt)
	m.runtime[id] = rt
	m.mu.Unlock()
	m.notifier.Bump()
}

// Runtime returns a copy of the widget's runtime record. A widget without a
// record is reported as loading.
func (m *Manager) Runtime(id layout.ID) Runtime {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runtimeLocked(id).clone()
}

// IsLoading reports whether the widget is loading.
func (m *Manager) IsLoading(id layout.ID) bool { return m.Runtime(id).Loading }

// Header returns the widget's header, if loaded.
func (m *Manager) Header(id layout.ID) *Header { return m.Runtime(id).Header }

// Data returns the widget's data, if loaded.
func (m *Manager) Data(id layout.ID) Data { return m.Runtime(id).Data }

// Footer returns the widget's footer.
func (m *Manager) Footer(id layout.ID) string { return m.Runtime(id).Footer }

// Error returns the widget's error message, if it has one.
func (m *Manager) Error(id layout.ID) (string, bool) {
	rt := m.Runtime(id)
	if rt.Error == nil {
		return "", false
	}
	return *rt.Error, true
}

// ByID returns the dashboard widget with the given id.
func (m *Manager) ByID(id layout.ID) (*Widget, bool) { return m.dashboard.ByID(id) }

// Params returns a copy of the widget's session params, or nil.
func (m *Manager) Params(id layout.ID) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.params[id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// SetParam merges kv into the widget's session params.
func (m *Manager) SetParam(id layout.ID, kv map[string]any) {
	m.mu.Lock()
	p := m.params[id]
	merged := make(map[string]any, len(p)+len(kv))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range kv {
		merged[k] = v
	}
	m.params[id] = merged
	m.mu.Unlock()
	m.notifier.Bump()
}

// SetError sets the widget's error and clears its loading flag. An empty
// message clears the error.
func (m *Manager) SetError(id layout.ID, msg string) {
	m.update(id, func(rt *Runtime) {
		rt.Loading = false
		rt.Error = nil
		if msg != "" {
			rt.Error = &msg
		}
	})
}

// SetLoading sets the widget's loading flag.
func (m *Manager) SetLoading(id layout.ID, loading bool) {
	m.update(id, func(rt *Runtime) { rt.Loading = loading })
}

// Initialize runs the widget's initializer and records the outcome in its
// runtime record. The initializer's error is returned for logging; it is
// already reflected in the record.
func (m *Manager) Initialize(ctx context.Context, w *Widget) error {
	id := w.ID()

	m.mu.Lock()
	gen := m.gens[id]
	rt := m.runtimeLocked(id)
	rt.Loading, rt.Error = true, nil
	m.runtime[id] = rt
	var params map[string]any
	if p, ok := m.params[id]; ok {
		params = make(map[string]any, len(p))
		for k, v := range p {
			params[k] = v
		}
	}
	m.mu.Unlock()
	m.notifier.Bump()

	observability.Widget().OnInitStart(ctx, string(id))
	start := time.Now()

	in := InitParams{
		Period: m.period.Period(),
		Params: params,
		Callbacks: Callbacks{
			UpdateData: func(d Data) { m.pushData(ctx, id, gen, d) },
		},
	}
	if m.resize != nil {
		in.Callbacks.ResizeWidget = func(h, w int) { m.resize(id, h, w) }
	}

	st, err := runInit(ctx, w, in)
	observability.Widget().OnInitComplete(ctx, string(id), time.Since(start), err)

	m.mu.Lock()
	if m.gens[id] != gen {
		m.mu.Unlock()
		m.logger.Debug("dropped stale widget result", "widget", id)
		observability.Widget().OnStaleWrite(ctx, string(id))
		return err
	}
	if err != nil {
		msg := errors.UserMessage(err)
		// A failed load clears header and data but keeps the last footer.
		m.runtime[id] = Runtime{Error: &msg, Footer: m.runtime[id].Footer}
	} else {
		m.runtime[id] = Runtime{Header: st.Header, Data: st.Data, Footer: st.Footer}
	}
	m.mu.Unlock()
	m.notifier.Bump()

	if err != nil {
		m.logger.Warn("widget failed to load", "widget", id, "err", err)
	}
	return err
}

func runInit(ctx context.Context, w *Widget, in InitParams) (st State, err error) {
	if w.Initialize == nil {
		return State{Data: Data{}}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "widget %s initializer panicked: %v", w.ID(), r)
		}
	}()
	return w.Initialize(ctx, in)
}

// pushData merges d into a loaded widget's data, unless the widget has been
// removed since the initializer that issued the callback started.
func (m *Manager) pushData(ctx context.Context, id layout.ID, gen uint64, d Data) {
	m.mu.Lock()
	if m.gens[id] != gen {
		m.mu.Unlock()
		observability.Widget().OnStaleWrite(ctx, string(id))
		return
	}
	rt, ok := m.runtime[id]
	if !ok || rt.Data == nil {
		m.mu.Unlock()
		return
	}
	rt.Data = rt.Data.Merge(d)
	m.runtime[id] = rt
	m.mu.Unlock()
	m.notifier.Bump()
}

// InitializeAll initializes every dashboard widget concurrently and waits
// for all of them. A failing widget only affects its own record. It returns
// the number of widgets that failed.
func (m *Manager) InitializeAll(ctx context.Context) int {
	return m.InitializeEach(ctx, m.dashboard.List())
}

// InitializeEach initializes ws concurrently and waits for all of them. It
// returns the number that failed.
func (m *Manager) InitializeEach(ctx context.Context, ws []*Widget) int {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed int
	)
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}
	for _, w := range ws {
		g.Go(func() error {
			if err := m.Initialize(ctx, w); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// Discard drops the runtime record of id and invalidates in-flight results.
func (m *Manager) Discard(id layout.ID) {
	m.mu.Lock()
	m.discardLocked(id)
	m.mu.Unlock()
	m.notifier.Bump()
}

// DiscardAll drops every runtime record.
func (m *Manager) DiscardAll() {
	m.mu.Lock()
	for id := range m.runtime {
		m.discardLocked(id)
	}
	m.mu.Unlock()
	m.notifier.Bump()
}

func (m *Manager) discardLocked(id layout.ID) {
	delete(m.runtime, id)
	m.gens[id]++
}

func membership(l layout.Layout) map[layout.ID]struct{} {
	s := make(map[layout.ID]struct{}, len(l))
	for _, it := range l {
		s[it.I] = struct{}{}
	}
	return s
}

// RemoveExcess moves dashboard widgets that are on the live grid but not in
// next back to the palette, discarding their runtime records. The moved
// widgets are returned so the caller can release them.
func (m *Manager) RemoveExcess(next layout.Layout) []*Widget {
	if m.live == nil {
		return nil
	}
	keep := membership(next)
	excess := make(map[layout.ID]struct{})
	for _, it := range m.live.Layout() {
		if _, ok := keep[it.I]; !ok {
			excess[it.I] = struct{}{}
		}
	}
	if len(excess) == 0 {
		return nil
	}

	removed := m.dashboard.Take(excess)
	m.mu.Lock()
	for _, w := range removed {
		m.discardLocked(w.ID())
	}
	m.mu.Unlock()
	m.palette.Add(removed...)

	if len(removed) > 0 {
		m.notifier.Bump()
		m.logger.Debug("moved widgets to palette", "ids", idsOf(removed))
	}
	return removed
}

// AddAdditional moves palette widgets that are in next but not on the live
// grid onto the dashboard and returns them. They start without a runtime
// record; the caller initializes them.
func (m *Manager) AddAdditional(next layout.Layout) []*Widget {
	current := map[layout.ID]struct{}{}
	if m.live != nil {
		current = membership(m.live.Layout())
	}
	additional := make(map[layout.ID]struct{})
	for _, it := range next {
		if _, ok := current[it.I]; !ok {
			additional[it.I] = struct{}{}
		}
	}
	if len(additional) == 0 {
		return nil
	}

	added := m.palette.Take(additional)
	m.dashboard.Add(added...)
	if len(added) > 0 {
		m.logger.Debug("moved widgets to dashboard", "ids", idsOf(added))
	}
	return added
}

// Adopt moves the palette widget id onto the dashboard, for a widget dropped
// onto the grid. The caller initializes it.
func (m *Manager) Adopt(id layout.ID) (*Widget, bool) {
	taken := m.palette.Take(map[layout.ID]struct{}{id: {}})
	if len(taken) == 0 {
		return nil, false
	}
	m.dashboard.Add(taken...)
	m.logger.Debug("moved widgets to dashboard", "ids", idsOf(taken))
	return taken[0], true
}

func idsOf(ws []*Widget) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = string(w.ID())
	}
	return out
}

// Version returns a counter bumped on every runtime or param change.
func (m *Manager) Version() uint64 { return m.notifier.Version() }

// Subscribe registers fn to be called after every runtime or param change.
func (m *Manager) Subscribe(fn func(version uint64)) (unsubscribe func()) {
	return m.notifier.Subscribe(fn)
}
