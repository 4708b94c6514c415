package dragdrop

import "github.com/matzehuels/gridboard/pkg/layout"

// EventKind is the kind of synthetic drag event forwarded to the grid renderer.
type EventKind string

const (
	EventDragStart EventKind = "dragstart"
	EventDragEnd   EventKind = "dragend"
)

// Position is an item's pixel offset inside the grid container.
type Position struct {
	Top  float64
	Left float64
}

// Rect is a bounding box in viewport pixels.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Contains reports whether (x, y) lies strictly inside r.
func (r Rect) Contains(x, y float64) bool {
	return x > r.Left && x < r.Right && y > r.Top && y < r.Bottom
}

// Element is a rendered node that can be cloned and styled.
type Element interface {
	Clone() Element
	SetStyle(name, value string)
	AddClass(name string)
	// Child returns the first descendant carrying class.
	Child(class string) (Element, bool)
	Remove()
}

// ItemHandle is the renderer's live handle for one grid item.
type ItemHandle interface {
	Wrapper() Element
	// State is the item's mutable pixel position.
	State() *Position
	// CalcXY converts a pixel offset into grid coordinates.
	CalcXY(top, left float64) (x, y int)
}

// Grid is the grid renderer.
type Grid interface {
	// DragEvent animates a provisional placement of item id.
	DragEvent(kind EventKind, id layout.ID, x, y, h, w int)
	Item(id layout.ID) (ItemHandle, bool)
	// Width is the rendered width in pixels, or 0 when unknown.
	Width() float64
}

// Container is the element wrapping the grid.
type Container interface {
	Bounds() Rect
}

// Document hosts detached elements such as the drag ghost.
type Document interface {
	Append(Element)
}

// DataTransfer is the native drag payload.
type DataTransfer interface {
	SetDragImage(el Element, offsetX, offsetY float64)
	SetEffect(allowed, drop string)
}

// ColumnCounter reports the column count of the active breakpoint.
type ColumnCounter interface {
	ActiveColumns() int
}

// DragEvent is a native drag event.
type DragEvent struct {
	// Target is the element being dragged.
	Target       Element
	DataTransfer DataTransfer
	// OffsetX and OffsetY locate the pointer within Target.
	OffsetX, OffsetY float64
}
