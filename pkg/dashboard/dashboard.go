// Package dashboard composes the grid engine into one dashboard: the live
// grid, the per-breakpoint layouts, drag and drop, widget runtime state and
// persistence.
//
// Every structural change follows the same path. The live grid receives the
// new layout, widgets leaving it go back to the palette and are released,
// widgets joining it come off the palette, the per-breakpoint layouts are
// rebuilt from the edit, the arrangement is saved and finally the new widgets
// are initialized.
package dashboard

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/dragdrop"
	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/persist"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/theme"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// Options configures a Dashboard.
type Options struct {
	// Grid is the responsive grid. The zero value means grid.DefaultConfig().
	Grid grid.Config
	// Widgets start on the dashboard, Palette holds the ones available to add.
	Widgets []*widget.Widget
	Palette []*widget.Widget
	// Backend stores the arrangement and theme. Nil means an in-memory store.
	Backend storage.Backend
	// Scheduler runs the layout swap that follows a breakpoint change.
	// Nil means grid.Immediate.
	Scheduler grid.Scheduler
	// Concurrency caps concurrent widget initializers. Zero means unlimited.
	Concurrency int
	// SkipInitialize leaves widgets unloaded after New.
	SkipInitialize bool
	Logger         *log.Logger
	// Now and Rand default to time.Now and math/rand.
	Now  func() time.Time
	Rand func(n int) int
}

// Dashboard is one dashboard instance.
type Dashboard struct {
	cfg     grid.Config
	logger  *log.Logger
	now     func() time.Time
	rand    func(n int) int
	live    *LiveGrid
	layouts *grid.Manager
	widgets *widget.Manager
	drag    *dragdrop.Coordinator
	store   *persist.Store
	themes  *theme.Store

	initialLayout  layout.Layout
	initialDash    []*widget.Widget
	initialPalette []*widget.Widget

	// opMu serializes structural changes.
	opMu sync.Mutex

	mu       sync.Mutex
	editMode bool
	period   period.Period
}

// New creates a dashboard, restores any saved arrangement from the backend
// and, unless opts.SkipInitialize is set, initializes every widget.
func New(ctx context.Context, opts Options) (*Dashboard, error) {
	cfg := opts.Grid
	if cfg.Columns == nil && cfg.Thresholds == nil {
		cfg = grid.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkUnique(opts.Widgets, opts.Palette); err != nil {
		return nil, err
	}
	if opts.Backend == nil {
		opts.Backend = storage.NewMemoryBackend()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = grid.Immediate{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.IntN
	}

	d := &Dashboard{
		cfg:            cfg,
		logger:         opts.Logger,
		now:            opts.Now,
		rand:           opts.Rand,
		store:          persist.NewStore(opts.Backend, opts.Logger),
		themes:         theme.NewStore(opts.Backend, opts.Logger),
		initialDash:    append([]*widget.Widget(nil), opts.Widgets...),
		initialPalette: append([]*widget.Widget(nil), opts.Palette...),
		period:         period.Default(opts.Now()),
	}
	d.initialLayout = layout.PlaceAll(layoutsOf(opts.Widgets), cfg.Columns[cfg.DesignBreakpoint])

	snap, err := d.store.Load(ctx)
	if err != nil {
		d.logger.Warn("could not load saved layout", "err", err)
		snap = nil
	}

	dash, palette := d.initialDash, d.initialPalette
	liveLayout := d.initialLayout
	if snap != nil {
		dash, palette = restoreMembership(snap, append(append([]*widget.Widget(nil), dash...), palette...))
		liveLayout = d.restoredLive(snap, dash)
	}
	dashColl, paletteColl := widget.NewCollection(dash...), widget.NewCollection(palette...)

	d.live = NewLiveGrid(liveLayout)
	d.layouts, err = grid.New(cfg, d.live, dashColl,
		grid.WithScheduler(opts.Scheduler),
		grid.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		saved := maps.Clone(snap.BreakpointLayouts)
		if _, ok := saved[cfg.DesignBreakpoint]; ok {
			// Widgets missing from the saved design layout were appended above.
			saved[cfg.DesignBreakpoint] = layout.Copy(liveLayout)
		}
		d.layouts.Restore(saved, snap.DashboardSet())
		d.logger.Info("restored saved layout", "widgets", dashColl.Len(), "breakpoints", len(snap.BreakpointLayouts))
	}

	d.widgets = widget.NewManager(dashColl, paletteColl, d.live, widget.PeriodFunc(d.Period),
		widget.WithLogger(opts.Logger),
		widget.WithConcurrency(opts.Concurrency),
		widget.WithResizer(d.resize),
	)
	d.drag, err = dragdrop.New(dragdrop.Config{
		Live:      d.live,
		Columns:   d.layouts,
		Scheduler: opts.Scheduler,
		RowHeight: cfg.RowHeight,
		Gap:       cfg.Margin,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	if !opts.SkipInitialize {
		d.Refresh(ctx)
	}
	return d, nil
}

func checkUnique(lists ...[]*widget.Widget) error {
	seen := make(map[layout.ID]struct{})
	for _, ws := range lists {
		for _, w := range ws {
			if w == nil {
				return errors.New(errors.ErrCodeInvalidInput, "nil widget")
			}
			if err := errors.ValidateWidgetID(string(w.ID())); err != nil {
				return err
			}
			if _, dup := seen[w.ID()]; dup {
				return errors.New(errors.ErrCodeInvalidInput, "duplicate widget id %q", w.ID())
			}
			seen[w.ID()] = struct{}{}
		}
	}
	return nil
}

func layoutsOf(ws []*widget.Widget) layout.Layout {
	l := make(layout.Layout, len(ws))
	for i, w := range ws {
		l[i] = w.Layout
	}
	return l
}

// restoreMembership splits all known widgets into dashboard and palette per
// the snapshot. Unknown saved ids are ignored; widgets the snapshot does not
// mention go to the palette.
func restoreMembership(snap *persist.Snapshot, all []*widget.Widget) (dash, palette []*widget.Widget) {
	byID := make(map[layout.ID]*widget.Widget, len(all))
	for _, w := range all {
		byID[w.ID()] = w
	}
	placed := make(map[layout.ID]bool, len(all))
	take := func(ids []layout.ID, dst *[]*widget.Widget) {
		for _, id := range ids {
			if w, ok := byID[id]; ok && !placed[id] {
				*dst = append(*dst, w)
				placed[id] = true
			}
		}
	}
	take(snap.DashboardWidgetIDs, &dash)
	take(snap.PaletteWidgetIDs, &palette)
	for _, w := range all {
		if !placed[w.ID()] {
			palette = append(palette, w)
		}
	}
	return dash, palette
}

// restoredLive returns the saved design-breakpoint layout for the dashboard
// widgets, appending any widget it lacks at its best slot.
func (d *Dashboard) restoredLive(snap *persist.Snapshot, dash []*widget.Widget) layout.Layout {
	cols := d.cfg.Columns[d.cfg.DesignBreakpoint]
	saved, ok := snap.BreakpointLayouts[d.cfg.DesignBreakpoint]
	if !ok {
		return layout.PlaceAll(layoutsOf(dash), cols)
	}
	ids := make(map[layout.ID]struct{}, len(dash))
	for _, w := range dash {
		ids[w.ID()] = struct{}{}
	}
	live := saved.Filter(ids)
	for _, w := range dash {
		if !live.Contains(w.ID()) {
			live = layout.Append(live, w.Layout, cols)
		}
	}
	return live
}

// Live returns the live grid.
func (d *Dashboard) Live() *LiveGrid { return d.live }

// Layouts returns the breakpoint layout manager.
func (d *Dashboard) Layouts() *grid.Manager { return d.layouts }

// Widgets returns the widget runtime manager.
func (d *Dashboard) Widgets() *widget.Manager { return d.widgets }

// Coordinator returns the drag and drop coordinator. The renderer mounts its
// grid and container on it.
func (d *Dashboard) Coordinator() *dragdrop.Coordinator { return d.drag }

// Config returns the grid configuration.
func (d *Dashboard) Config() grid.Config { return d.cfg }

// Close releases every widget's resources.
func (d *Dashboard) Close() error {
	for _, w := range d.widgets.Dashboard().List() {
		w.Release()
	}
	return nil
}
