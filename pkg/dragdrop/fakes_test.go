package dragdrop

import (
	"sync"

	"github.com/matzehuels/gridboard/pkg/layout"
)

type fakeElement struct {
	name     string
	styles   map[string]string
	classes  []string
	children map[string]*fakeElement
	removed  bool
}

func newElement(name string) *fakeElement {
	return &fakeElement{
		name:     name,
		styles:   map[string]string{},
		children: map[string]*fakeElement{InnerClass: {name: name + "/inner", styles: map[string]string{}}},
	}
}

func (e *fakeElement) Clone() Element {
	cp := &fakeElement{name: e.name + "/clone", styles: map[string]string{}, children: map[string]*fakeElement{}}
	for k, v := range e.styles {
		cp.styles[k] = v
	}
	cp.classes = append(cp.classes, e.classes...)
	for k, ch := range e.children {
		cp.children[k] = ch.Clone().(*fakeElement)
	}
	return cp
}

func (e *fakeElement) SetStyle(name, value string) { e.styles[name] = value }
func (e *fakeElement) AddClass(name string)        { e.classes = append(e.classes, name) }
func (e *fakeElement) Remove()                     { e.removed = true }

func (e *fakeElement) Child(class string) (Element, bool) {
	ch, ok := e.children[class]
	if !ok {
		return nil, false
	}
	return ch, true
}

type fakeDocument struct{ appended []Element }

func (d *fakeDocument) Append(el Element) { d.appended = append(d.appended, el) }

type fakeTransfer struct {
	image            Element
	offX, offY       float64
	allowed, dropped string
}

func (t *fakeTransfer) SetDragImage(el Element, x, y float64) { t.image, t.offX, t.offY = el, x, y }
func (t *fakeTransfer) SetEffect(allowed, drop string)        { t.allowed, t.dropped = allowed, drop }

type liveLayout struct {
	mu sync.Mutex
	l  layout.Layout
}

func (s *liveLayout) Layout() layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.Copy(s.l)
}

func (s *liveLayout) SetLayout(l layout.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l = layout.Copy(l)
}

type fixedColumns int

func (c fixedColumns) ActiveColumns() int { return int(c) }

type fixedContainer Rect

func (c fixedContainer) Bounds() Rect { return Rect(c) }

type dragCall struct {
	kind EventKind
	id   layout.ID
	x, y int
}

type fakeHandle struct {
	wrapper *fakeElement
	pos     Position
	cell    float64
}

func (h *fakeHandle) Wrapper() Element    { return h.wrapper }
func (h *fakeHandle) State() *Position    { return &h.pos }
func (h *fakeHandle) CalcXY(top, left float64) (int, int) {
	return int(left / h.cell), int(top / h.cell)
}

// fakeGrid moves the previewed item to the pointer cell on dragstart, the way
// the renderer does.
type fakeGrid struct {
	live    *liveLayout
	width   float64
	calls   []dragCall
	handles map[layout.ID]*fakeHandle
}

func newFakeGrid(live *liveLayout) *fakeGrid {
	return &fakeGrid{live: live, width: 1000, handles: map[layout.ID]*fakeHandle{}}
}

func (g *fakeGrid) DragEvent(kind EventKind, id layout.ID, x, y, h, w int) {
	g.calls = append(g.calls, dragCall{kind, id, x, y})
	if kind != EventDragStart {
		return
	}
	l := g.live.Layout()
	if i := l.Index(id); i >= 0 {
		l[i].X, l[i].Y = x, y
		g.live.SetLayout(l)
	}
}

func (g *fakeGrid) Item(id layout.ID) (ItemHandle, bool) {
	if !g.live.Layout().Contains(id) {
		return nil, false
	}
	h, ok := g.handles[id]
	if !ok {
		h = &fakeHandle{wrapper: newElement(string(id)), cell: 100}
		g.handles[id] = h
	}
	return h, true
}

func (g *fakeGrid) Width() float64 { return g.width }
