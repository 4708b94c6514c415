package dashboard

import (
	"context"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/theme"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// ApplyLayout makes next the live grid: widgets missing from next return to
// the palette and are released, palette widgets named in next join the
// dashboard, the breakpoint layouts are rebuilt, the arrangement is saved and
// the joining widgets are initialized.
func (d *Dashboard) ApplyLayout(ctx context.Context, next layout.Layout) error {
	d.opMu.Lock()
	if err := layout.Validate(next, d.layouts.ActiveColumns()); err != nil {
		d.opMu.Unlock()
		return err
	}

	removed := d.widgets.RemoveExcess(next)
	for _, w := range removed {
		w.Release()
	}
	added := d.widgets.AddAdditional(next)
	next = d.withoutStrangers(next)

	d.live.SetLayout(next)
	d.layouts.Rebuild(ctx, "")
	d.saveLocked(ctx)
	d.opMu.Unlock()

	if len(removed) > 0 || len(added) > 0 {
		d.logger.Info("dashboard membership changed", "added", len(added), "removed", len(removed))
	}
	d.widgets.InitializeEach(ctx, added)
	return nil
}

// withoutStrangers drops items whose id is not a dashboard widget.
func (d *Dashboard) withoutStrangers(l layout.Layout) layout.Layout {
	dash := d.widgets.Dashboard()
	out := make(layout.Layout, 0, len(l))
	for _, it := range l {
		if dash.Contains(it.I) {
			out = append(out, it)
		} else {
			d.logger.Warn("dropping layout item without a widget", "item", it.I)
		}
	}
	return out
}

// AddFromPalette appends the palette widget id at its best slot on the live
// grid.
func (d *Dashboard) AddFromPalette(ctx context.Context, id layout.ID) error {
	w, ok := d.widgets.Palette().ByID(id)
	if !ok {
		return errors.New(errors.ErrCodeWidgetNotFound, "widget %q is not in the palette", id)
	}
	next := layout.Append(d.live.Layout(), w.Layout, d.layouts.ActiveColumns())
	return d.ApplyLayout(ctx, next)
}

// RemoveWidget moves the dashboard widget id back to the palette.
func (d *Dashboard) RemoveWidget(ctx context.Context, id layout.ID) error {
	live := d.live.Layout()
	if !live.Contains(id) {
		return errors.New(errors.ErrCodeWidgetNotFound, "widget %q is not on the dashboard", id)
	}
	return d.ApplyLayout(ctx, live.Without(id))
}

// Drop completes a drag from the palette: the coordinator has already placed
// item on the live grid, and the widget it names joins the dashboard.
func (d *Dashboard) Drop(ctx context.Context, item layout.Item) error {
	d.opMu.Lock()
	w, ok := d.widgets.Adopt(item.I)
	if !ok {
		if d.widgets.Dashboard().Contains(item.I) {
			// A dashboard widget dragged within the grid.
			d.layouts.Rebuild(ctx, "")
			d.saveLocked(ctx)
			d.opMu.Unlock()
			return nil
		}
		d.live.SetLayout(d.live.Layout().Without(item.I))
		d.opMu.Unlock()
		return errors.New(errors.ErrCodeWidgetNotFound, "dropped item %q is not a palette widget", item.I)
	}
	d.fitLocked(item.I)
	d.layouts.Rebuild(ctx, "")
	d.saveLocked(ctx)
	d.opMu.Unlock()

	d.logger.Info("widget dropped", "widget", w.ID(), "x", item.X, "y", item.Y)
	_ = d.widgets.Initialize(ctx, w)
	return nil
}

// fitLocked keeps a dropped item inside the active column count.
func (d *Dashboard) fitLocked(id layout.ID) {
	cols := d.layouts.ActiveColumns()
	live := d.live.Layout()
	i := live.Index(id)
	if i < 0 || live[i].X+live[i].W <= cols {
		return
	}
	live[i].W = min(live[i].W, cols)
	live[i].X = min(live[i].X, cols-live[i].W)
	d.live.SetLayout(live)
}

// EndDrag finishes the coordinator's gesture and, when it produced a drop,
// completes it.
func (d *Dashboard) EndDrag(ctx context.Context) (layout.Item, bool, error) {
	item, ok := d.drag.HandleDragEnd()
	if !ok {
		return layout.Item{}, false, nil
	}
	return item, true, d.Drop(ctx, item)
}

// MoveItem moves a dashboard item on the live grid.
func (d *Dashboard) MoveItem(ctx context.Context, id layout.ID, x, y int) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	if !d.drag.HandleItemMove(id, x, y) {
		return errors.New(errors.ErrCodeWidgetNotFound, "widget %q is not on the dashboard", id)
	}
	d.layouts.Rebuild(ctx, "")
	d.saveLocked(ctx)
	return nil
}

// resize applies a widget's request to change its own size. Zero keeps a
// dimension.
func (d *Dashboard) resize(id layout.ID, h, w int) {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	live := d.live.Layout()
	i := live.Index(id)
	if i < 0 {
		return
	}
	if h > 0 {
		live[i].H = h
	}
	if w > 0 {
		live[i].W = min(w, d.layouts.ActiveColumns())
	}
	d.live.SetLayout(live)
	ctx := context.Background()
	d.layouts.Rebuild(ctx, "")
	d.saveLocked(ctx)
}

// HandleBreakpointChange forwards the renderer's breakpoint report.
func (d *Dashboard) HandleBreakpointChange(ctx context.Context, bp layout.Breakpoint) error {
	return d.layouts.HandleBreakpointChange(ctx, bp, nil)
}

// Reset discards the saved arrangement and returns every widget to its
// initial place, then reloads them.
func (d *Dashboard) Reset(ctx context.Context) error {
	d.opMu.Lock()
	for _, w := range d.widgets.Dashboard().List() {
		w.Release()
	}
	d.widgets.DiscardAll()
	d.widgets.Dashboard().Replace(d.initialDash...)
	d.widgets.Palette().Replace(d.initialPalette...)

	d.live.SetLayout(d.initialLayout)
	d.layouts.Reinitialize(d.cfg.DesignBreakpoint)
	if active := d.layouts.Active(); d.layouts.Initialized() && active != d.cfg.DesignBreakpoint {
		if l, ok := d.layouts.Layout(active); ok {
			d.live.SetLayout(l)
		}
	}
	err := d.store.Clear(ctx)
	d.opMu.Unlock()

	d.logger.Info("dashboard reset")
	d.Refresh(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "clear saved layout")
	}
	return nil
}

// Refresh reloads every dashboard widget and returns how many failed.
func (d *Dashboard) Refresh(ctx context.Context) int {
	failed := d.widgets.InitializeAll(ctx)
	if failed > 0 {
		d.logger.Warn("some widgets failed to load", "failed", failed)
	}
	return failed
}

func (d *Dashboard) saveLocked(ctx context.Context) {
	err := d.store.Save(ctx, d.layouts.Layouts(), d.cfg.DesignBreakpoint,
		d.widgets.Dashboard().IDs(), d.widgets.Palette().IDs())
	if err != nil {
		d.logger.Warn("could not save layout", "err", err)
	}
}

// =============================================================================
// Period
// =============================================================================

// Period returns the global period.
func (d *Dashboard) Period() period.Period {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.period
}

// SetPeriod changes the global period and reloads every widget that
// filters by date.
func (d *Dashboard) SetPeriod(ctx context.Context, p period.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.period = p
	d.mu.Unlock()

	var affected []*widget.Widget
	for _, w := range d.widgets.Dashboard().List() {
		if !w.SkipDateFilter {
			affected = append(affected, w)
		}
	}
	d.widgets.InitializeEach(ctx, affected)
	return nil
}

// SetPreset resolves a period preset against the current time and applies it.
func (d *Dashboard) SetPreset(ctx context.Context, code period.Code, compare bool) error {
	p, err := period.Resolve(code, d.now())
	if err != nil {
		return err
	}
	if compare {
		p = p.WithPreviousComparison()
	}
	return d.SetPeriod(ctx, p)
}

// =============================================================================
// Edit mode and keyboard shortcuts
// =============================================================================

// EditMode reports whether the dashboard is being edited.
func (d *Dashboard) EditMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editMode
}

// ToggleEdit flips edit mode and returns the new state.
func (d *Dashboard) ToggleEdit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editMode = !d.editMode
	return d.editMode
}

// ExitEdit leaves edit mode.
func (d *Dashboard) ExitEdit() {
	d.mu.Lock()
	d.editMode = false
	d.mu.Unlock()
}

// HandleKey applies a keyboard shortcut: "e" toggles edit mode, "r"
// refreshes and "esc" leaves edit mode. typing suppresses shortcuts while a
// text field has focus. It reports whether the key was a shortcut.
func (d *Dashboard) HandleKey(ctx context.Context, key string, typing bool) bool {
	if typing {
		return false
	}
	switch key {
	case "e", "E":
		d.ToggleEdit()
	case "r", "R":
		d.Refresh(ctx)
	case "esc", "escape", "Escape":
		d.ExitEdit()
	default:
		return false
	}
	return true
}

// =============================================================================
// Demo features
// =============================================================================

// SimulatedError is the message set by SimulateError.
const SimulatedError = "Simulated error for demo purposes"

// SimulateError clears the widget currently in error, if any, and puts a
// random other widget that is not loading into error. It returns the chosen
// widget.
func (d *Dashboard) SimulateError() (layout.ID, bool) {
	ws := d.widgets.Dashboard().List()
	var prev layout.ID
	for _, w := range ws {
		if _, ok := d.widgets.Error(w.ID()); ok {
			prev = w.ID()
			d.widgets.SetError(prev, "")
			break
		}
	}
	var candidates []layout.ID
	for _, w := range ws {
		if w.ID() != prev && !d.widgets.IsLoading(w.ID()) {
			candidates = append(candidates, w.ID())
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	id := candidates[d.rand(len(candidates))]
	d.widgets.SetError(id, SimulatedError)
	return id, true
}

// SimulateLoading clears the widget currently loading, if any, and puts a
// random other widget that is not in error into the loading state.
func (d *Dashboard) SimulateLoading() (layout.ID, bool) {
	ws := d.widgets.Dashboard().List()
	var prev layout.ID
	for _, w := range ws {
		if d.widgets.IsLoading(w.ID()) {
			prev = w.ID()
			d.widgets.SetLoading(prev, false)
			break
		}
	}
	var candidates []layout.ID
	for _, w := range ws {
		if _, failed := d.widgets.Error(w.ID()); w.ID() != prev && !failed {
			candidates = append(candidates, w.ID())
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	id := candidates[d.rand(len(candidates))]
	d.widgets.SetLoading(id, true)
	return id, true
}

// =============================================================================
// Theme
// =============================================================================

// Theme returns the stored theme preferences.
func (d *Dashboard) Theme(ctx context.Context) (theme.Config, error) {
	return d.themes.Load(ctx)
}

// SetTheme validates and stores theme preferences.
func (d *Dashboard) SetTheme(ctx context.Context, cfg theme.Config) error {
	return d.themes.Save(ctx, cfg)
}
