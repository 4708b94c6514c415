package cli

import (
	"sync"

	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/dragdrop"
	"github.com/matzehuels/gridboard/pkg/layout"
)

// The terminal renderer measures "pixels" in character cells: a grid column
// is cellWidth cells wide and a grid row is one line.

// termElement is an in-memory element standing in for a rendered node.
type termElement struct {
	mu       sync.Mutex
	name     string
	styles   map[string]string
	classes  []string
	children []*termElement
	removed  bool
}

func newTermElement(name string, classes ...string) *termElement {
	return &termElement{name: name, styles: map[string]string{}, classes: classes}
}

func (e *termElement) Clone() dragdrop.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := newTermElement(e.name, e.classes...)
	for k, v := range e.styles {
		out.styles[k] = v
	}
	for _, c := range e.children {
		out.children = append(out.children, c.Clone().(*termElement))
	}
	return out
}

func (e *termElement) SetStyle(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if value == "" {
		delete(e.styles, name)
		return
	}
	e.styles[name] = value
}

func (e *termElement) Style(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.styles[name]
}

func (e *termElement) AddClass(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classes = append(e.classes, name)
}

func (e *termElement) Child(class string) (dragdrop.Element, bool) {
	e.mu.Lock()
	children := append([]*termElement(nil), e.children...)
	e.mu.Unlock()
	for _, c := range children {
		if c.hasClass(class) {
			return c, true
		}
		if found, ok := c.Child(class); ok {
			return found, true
		}
	}
	return nil, false
}

func (e *termElement) hasClass(class string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

func (e *termElement) Remove() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
}

func (e *termElement) Removed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

// paletteElement builds the element for a palette entry.
func paletteElement(id layout.ID) *termElement {
	el := newTermElement("palette-item:" + string(id))
	el.children = []*termElement{newTermElement("inner", dragdrop.InnerClass)}
	return el
}

// termDocument holds detached elements such as drag ghosts.
type termDocument struct {
	mu       sync.Mutex
	attached []*termElement
}

func (d *termDocument) Append(el dragdrop.Element) {
	te, ok := el.(*termElement)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = append(d.attached, te)
}

// Ghosts returns how many appended elements are still attached.
func (d *termDocument) Ghosts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, el := range d.attached {
		if !el.Removed() {
			n++
		}
	}
	return n
}

// termHandle is the renderer handle of one grid item.
type termHandle struct {
	wrapper *termElement
	pos     dragdrop.Position
	cols    func() int
	width   int
}

func (h *termHandle) Wrapper() dragdrop.Element { return h.wrapper }

func (h *termHandle) State() *dragdrop.Position { return &h.pos }

// CalcXY maps a cell offset to grid coordinates, keeping the item inside the
// grid's columns.
func (h *termHandle) CalcXY(top, left float64) (x, y int) {
	x = int(left) / cellWidth
	y = int(top)
	x = min(x, h.cols()-max(h.width, 1))
	return max(x, 0), max(y, 0)
}

// termGrid is the dragdrop.Grid of the terminal renderer. Drag previews move
// the placeholder directly on the live grid.
type termGrid struct {
	live *dashboard.LiveGrid
	cols func() int

	mu      sync.Mutex
	handles map[layout.ID]*termHandle
	last    dragdrop.EventKind
}

func newTermGrid(live *dashboard.LiveGrid, cols func() int) *termGrid {
	return &termGrid{live: live, cols: cols, handles: map[layout.ID]*termHandle{}}
}

func (g *termGrid) DragEvent(kind dragdrop.EventKind, id layout.ID, x, y, h, w int) {
	g.mu.Lock()
	g.last = kind
	g.mu.Unlock()
	if kind != dragdrop.EventDragStart {
		return
	}
	l := g.live.Layout()
	i := l.Index(id)
	if i < 0 {
		return
	}
	l[i].X = max(0, min(x, g.cols()-l[i].W))
	l[i].Y = max(0, y)
	g.live.SetLayout(l)
}

func (g *termGrid) Item(id layout.ID) (dragdrop.ItemHandle, bool) {
	it, ok := g.live.Layout().Find(id)
	if !ok {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.handles[id]
	if !ok {
		h = &termHandle{wrapper: newTermElement("item:" + string(id)), cols: g.cols}
		g.handles[id] = h
	}
	h.width = it.W
	return h, true
}

func (g *termGrid) Width() float64 { return float64(g.cols() * cellWidth) }

// LastEvent returns the kind of the most recent drag event.
func (g *termGrid) LastEvent() dragdrop.EventKind {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// termContainer spans the grid plus dropMargin free rows below it.
type termContainer struct {
	g *termGrid
}

const dropMargin = 4

func (c termContainer) Bounds() dragdrop.Rect {
	height := 0
	for _, it := range c.g.live.Layout() {
		height = max(height, it.Y+it.H)
	}
	return dragdrop.Rect{Left: 0, Top: 0, Right: c.g.Width(), Bottom: float64(height + dropMargin)}
}

// pointerAt returns the cell coordinates of the centre of grid cell (col, row).
func pointerAt(col, row int) (x, y float64) {
	return float64(col*cellWidth) + 0.5, float64(row) + 0.5
}
