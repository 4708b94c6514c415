// Package dragdrop coordinates dragging widgets from the palette onto the
// grid.
//
// A Coordinator follows one gesture at a time. While the pointer is over the
// grid container it keeps a placeholder item in the live layout so the
// renderer can preview the slot; when the pointer leaves, the placeholder is
// withdrawn. Dropping inside the grid finalizes the placeholder into a real
// item that the caller then adopts as a dashboard widget. Every element the
// gesture touches is owned by the Coordinator, so independent dashboards never
// share drag state.
package dragdrop

import (
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
)

// DefaultTargetID is the placeholder id used while dragging an item that has
// no id of its own.
const DefaultTargetID layout.ID = "dropId"

// InnerClass marks the palette item's content node, which is resized along
// with the ghost.
const InnerClass = "dashboard-palette-item-inner"

// DefaultContainerWidth is assumed when the renderer has not reported a width.
const DefaultContainerWidth = 800

// EmptyItem is the pending item of an idle coordinator.
func EmptyItem() layout.Item {
	return layout.Item{X: -1, Y: -1, W: 1, H: 1}
}

// DropState is the ephemeral state of one drag gesture.
type DropState struct {
	TargetID layout.ID
	Pending  layout.Item
	Active   bool
	Aborted  bool
}

func emptyState() DropState {
	return DropState{TargetID: DefaultTargetID, Pending: EmptyItem()}
}

// Phase summarizes where a gesture is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseAborted:
		return "aborted"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Config wires a Coordinator to its collaborators. Grid and Container may be
// left nil until the grid is mounted; handlers do nothing without them.
type Config struct {
	Grid      Grid
	Container Container
	Document  Document
	// Live is the live grid layout the placeholder is inserted into.
	Live    grid.Source
	Columns ColumnCounter
	// Scheduler runs the ghost cleanup on the next tick. Defaults to grid.Immediate.
	Scheduler grid.Scheduler
	RowHeight int
	Gap       [2]int
	Logger    *log.Logger
}

// Coordinator tracks the pointer and drives one drag gesture at a time.
type Coordinator struct {
	live      grid.Source
	columns   ColumnCounter
	document  Document
	sched     grid.Scheduler
	rowHeight int
	gap       [2]int
	logger    *log.Logger

	mu        sync.Mutex
	grid      Grid
	container Container
	pointerX  float64
	pointerY  float64
	state     DropState
	source    Element
	ghost     Element
	ghostSeq  uint64
	// inserted is set while a placeholder this coordinator added is in the live layout.
	inserted bool
}

// New creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Live == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "drag coordinator needs a live grid")
	}
	if cfg.Columns == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "drag coordinator needs a column counter")
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = grid.Immediate{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Coordinator{
		live:      cfg.Live,
		columns:   cfg.Columns,
		document:  cfg.Document,
		sched:     cfg.Scheduler,
		rowHeight: cfg.RowHeight,
		gap:       cfg.Gap,
		logger:    cfg.Logger,
		grid:      cfg.Grid,
		container: cfg.Container,
		state:     emptyState(),
	}, nil
}

// Mount attaches the renderer and its container.
func (c *Coordinator) Mount(g Grid, container Container) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid, c.container = g, container
}

// SetDocument sets where drag ghosts are attached.
func (c *Coordinator) SetDocument(doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.document = doc
}

// MovePointer records the pointer position in viewport pixels.
func (c *Coordinator) MovePointer(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointerX, c.pointerY = x, y
}

// State returns a copy of the current drop state.
func (c *Coordinator) State() DropState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Pending = s.Pending.Clone()
	return s
}

// Phase returns the gesture phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state.Aborted:
		return PhaseAborted
	case c.state.Active:
		return PhaseDragging
	}
	return PhaseIdle
}

// Abort marks the current gesture as cancelled. The next HandleDragEnd
// discards it and withdraws any placeholder, leaving the layout as it was
// before the gesture.
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Aborted = true
}

func (c *Coordinator) cols() int {
	n := c.columns.ActiveColumns()
	if n < 1 {
		n = 1
	}
	return n
}

// insideLocked reports whether the grid is mounted and the pointer is over it.
func (c *Coordinator) insideLocked() (Rect, bool, bool) {
	if c.grid == nil || c.container == nil {
		return Rect{}, false, false
	}
	b := c.container.Bounds()
	return b, b.Contains(c.pointerX, c.pointerY), true
}

// GhostSize returns the pixel size of a w×h item on a grid of cols columns
// rendered containerWidth pixels wide.
func GhostSize(containerWidth float64, cols, w, h, rowHeight, gap int) (width, height int) {
	if containerWidth <= 0 {
		containerWidth = DefaultContainerWidth
	}
	if cols < 1 {
		cols = 1
	}
	g := float64(gap)
	colWidth := (containerWidth - g*float64(cols+1)) / float64(cols)
	width = int(math.Round(colWidth*float64(w) + float64(max(0, w-1))*g))
	height = h*rowHeight + (h-1)*gap
	return width, height
}

func mergeItem(base layout.Item, overrides *layout.Item) layout.Item {
	if overrides == nil {
		return base
	}
	out := overrides.Clone()
	if out.W < 1 {
		out.W = base.W
	}
	if out.H < 1 {
		out.H = base.H
	}
	if out.I == "" {
		out.I = base.I
	}
	return out
}

// fitLocked narrows the pending item to the active column count and pulls it
// back inside the right edge.
func (c *Coordinator) fitLocked(it *layout.Item) {
	cols := c.cols()
	it.W = min(max(it.W, 1), cols)
	if it.X+it.W > cols {
		it.X = cols - it.W
	}
}

// HandleDragStart begins a gesture for the palette item whose layout is
// overrides. It clones ev.Target into an off-screen ghost sized to the item's
// grid footprint, installs it as the drag image and removes it again on the
// next tick.
func (c *Coordinator) HandleDragStart(ev DragEvent, overrides *layout.Item) error {
	if ev.Target == nil {
		return errors.New(errors.ErrCodeInvalidInput, "drag start without a target element")
	}

	c.mu.Lock()
	c.state.Pending = mergeItem(c.state.Pending, overrides)
	c.fitLocked(&c.state.Pending)
	p := c.state.Pending

	width := 0.0
	if c.grid != nil {
		width = c.grid.Width()
	}
	itemW, itemH := GhostSize(width, c.cols(), p.W, p.H, c.rowHeight, c.gap[0])
	hpx := fmt.Sprintf("%dpx", itemH)
	wpx := fmt.Sprintf("%dpx", itemW)

	c.source = ev.Target
	ghost := ev.Target.Clone()
	if inner, ok := ghost.Child(InnerClass); ok {
		inner.SetStyle("min-height", hpx)
		inner.SetStyle("max-height", hpx)
		inner.SetStyle("transform", "translate(0, 0)")
		inner.SetStyle("visibility", "hidden")
	}
	for _, kv := range [][2]string{
		{"position", "absolute"},
		{"top", "-1000px"},
		{"min-width", wpx},
		{"max-width", wpx},
		{"min-height", hpx},
		{"max-height", hpx},
		{"background-color", "transparent"},
		{"overflow", "hidden"},
		{"box-shadow", "none"},
		{"transform", "unset"},
	} {
		ghost.SetStyle(kv[0], kv[1])
	}
	ghost.AddClass("dragging")

	if c.document != nil {
		c.document.Append(ghost)
	}
	if ev.DataTransfer != nil {
		ev.DataTransfer.SetDragImage(ghost, ev.OffsetX, ev.OffsetY)
	}
	c.ghost = ghost
	c.ghostSeq++
	seq := c.ghostSeq

	ev.Target.SetStyle("transform", "unset")
	c.state.Active = true
	c.mu.Unlock()

	c.logger.Debug("drag started", "item", p.I, "w", p.W, "h", p.H, "ghost", wpx+"x"+hpx)

	// The drag image is captured once, so the ghost can go right away.
	c.sched.Defer(func() {
		ghost.Remove()
		c.mu.Lock()
		if c.ghostSeq == seq {
			c.ghost = nil
		}
		c.mu.Unlock()
	})
	return nil
}

// HasGhost reports whether a drag ghost is still attached.
func (c *Coordinator) HasGhost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ghost != nil
}

// HandleDrag runs continuously while dragging. Over the grid it ensures a
// single placeholder is present and asks the renderer to preview it at the
// pointer; outside it withdraws the placeholder.
func (c *Coordinator) HandleDrag(overrides *layout.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Pending = mergeItem(EmptyItem(), overrides)
	c.fitLocked(&c.state.Pending)
	c.state.TargetID = c.state.Pending.I
	if c.state.TargetID == "" {
		c.state.TargetID = DefaultTargetID
	}
	target := c.state.TargetID

	bounds, inside, mounted := c.insideLocked()
	if !mounted {
		return
	}

	live := c.live.Layout()
	if inside && !live.Contains(target) {
		cols := c.cols()
		n := len(live)
		live = append(live, layout.Item{
			I: target,
			X: min((n*2)%cols, cols-c.state.Pending.W),
			Y: n + cols,
			W: c.state.Pending.W,
			H: c.state.Pending.H,
		})
		c.live.SetLayout(live)
		c.inserted = true
	}
	if !live.Contains(target) {
		return
	}

	handle, ok := c.grid.Item(target)
	if !ok {
		return
	}
	if w := handle.Wrapper(); w != nil {
		w.SetStyle("display", "none")
	}
	top, left := c.pointerY-bounds.Top, c.pointerX-bounds.Left
	if st := handle.State(); st != nil {
		st.Top, st.Left = top, left
	}
	gx, gy := handle.CalcXY(top, left)
	p := &c.state.Pending

	if !inside {
		c.grid.DragEvent(EventDragEnd, target, gx, gy, p.H, p.W)
		c.live.SetLayout(c.live.Layout().Without(target))
		c.inserted = false
		return
	}

	c.grid.DragEvent(EventDragStart, target, gx, gy, p.H, p.W)
	live = c.live.Layout()
	if p.I == "" {
		p.I = nextID(live)
	}
	if it, ok := live.Find(target); ok {
		p.X, p.Y = it.X, it.Y
	}
}

// HandleDragOver sets the drop effect: move over the grid, none elsewhere.
func (c *Coordinator) HandleDragOver(dt DataTransfer) {
	c.mu.Lock()
	_, inside, mounted := c.insideLocked()
	c.mu.Unlock()

	if !mounted || dt == nil {
		return
	}
	if inside {
		dt.SetEffect("move", "move")
	} else {
		dt.SetEffect("none", "none")
	}
}

// HandleDragEnd finishes the gesture. When the pointer is over the grid and
// the gesture was not aborted, the placeholder is replaced by the finalized
// item, which is returned. Otherwise the drop state is cleared and the live
// layout is returned to its pre-gesture state.
func (c *Coordinator) HandleDragEnd() (layout.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source != nil {
		c.source.SetStyle("transform", "")
		c.source = nil
	}

	_, inside, mounted := c.insideLocked()
	if !mounted || c.state.Aborted || !inside {
		c.withdrawLocked()
		c.state = emptyState()
		return layout.Item{}, false
	}

	target := c.state.TargetID
	p := c.state.Pending.Clone()
	c.grid.DragEvent(EventDragEnd, target, p.X, p.Y, p.H, p.W)

	live := c.live.Layout().Without(target)
	if p.I == "" {
		p.I = nextID(live)
	}
	live = live.Without(p.I)
	cols := c.cols()
	if p.X < 0 || p.Y < 0 {
		// Dropped without ever being previewed.
		p.W = min(p.W, cols)
		p.X, p.Y = layout.FindSlot(layout.ColumnHeights(live, cols), p.W)
	}
	c.fitLocked(&p)
	live = append(live, p)
	c.live.SetLayout(live)

	c.grid.DragEvent(EventDragEnd, p.I, p.X, p.Y, p.H, p.W)
	if handle, ok := c.grid.Item(p.I); ok {
		if w := handle.Wrapper(); w != nil {
			w.SetStyle("display", "")
		}
	}

	c.logger.Debug("drop finalized", "item", p.I, "x", p.X, "y", p.Y)
	c.inserted = false
	c.state = emptyState()
	return p, true
}

// withdrawLocked removes a placeholder left behind by an abandoned gesture.
func (c *Coordinator) withdrawLocked() {
	if !c.inserted {
		return
	}
	c.inserted = false
	live := c.live.Layout()
	if live.Contains(c.state.TargetID) {
		c.live.SetLayout(live.Without(c.state.TargetID))
	}
}

// HandleItemMove records a move reported by the renderer by updating the
// item's position in the live layout. Other items are not displaced. It
// reports whether the item exists.
func (c *Coordinator) HandleItemMove(id layout.ID, x, y int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.live.Layout()
	i := live.Index(id)
	if i < 0 {
		return false
	}
	live[i].X, live[i].Y = max(0, x), max(0, y)
	c.live.SetLayout(live)
	return true
}

// NextID returns an id for a newly placed item: one more than the largest
// numeric id in the live layout, or 1 if there is none.
func (c *Coordinator) NextID() layout.ID {
	return nextID(c.live.Layout())
}

func nextID(l layout.Layout) layout.ID {
	best, found := 0, false
	for _, it := range l {
		if n, ok := it.I.Numeric(); ok && (!found || n > best) {
			best, found = n, true
		}
	}
	if !found {
		return layout.IntID(1)
	}
	return layout.IntID(best + 1)
}
