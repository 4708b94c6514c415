package layout

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/matzehuels/gridboard/pkg/errors"
)

// =============================================================================
// ID
// =============================================================================

// ID identifies a layout item and the widget it hosts.
//
// Dashboards mix numeric ids (assigned by the drag and drop coordinator) and
// named ids. Integer-looking ids are encoded as JSON numbers and all others as
// JSON strings; both forms decode.
type ID string

// Numeric returns the integer value of the id, if it is an integer.
func (id ID) Numeric() (int, bool) {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntID converts an integer into an ID.
func IntID(n int) ID { return ID(strconv.Itoa(n)) }

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Numeric(); ok && strconv.Itoa(n) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLayout, err, "item id must be a string or number")
	}
	*id = ID(n.String())
	return nil
}

// =============================================================================
// Breakpoint
// =============================================================================

// Breakpoint names a viewport width tier.
type Breakpoint string

// Supported breakpoints, widest first.
const (
	LG  Breakpoint = "lg"
	MD  Breakpoint = "md"
	SM  Breakpoint = "sm"
	XS  Breakpoint = "xs"
	XXS Breakpoint = "xxs"
)

// Breakpoints lists every supported breakpoint in its conventional order.
var Breakpoints = []Breakpoint{LG, MD, SM, XS, XXS}

// Valid reports whether b is one of the supported breakpoints.
func (b Breakpoint) Valid() bool {
	switch b {
	case LG, MD, SM, XS, XXS:
		return true
	}
	return false
}

// String returns the breakpoint name.
func (b Breakpoint) String() string { return string(b) }

// ParseBreakpoint validates and converts a breakpoint name.
func ParseBreakpoint(s string) (Breakpoint, error) {
	b := Breakpoint(s)
	if !b.Valid() {
		return "", errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q (want one of lg, md, sm, xs, xxs)", s)
	}
	return b, nil
}

// Thresholds maps each breakpoint to its minimum viewport width in pixels.
type Thresholds map[Breakpoint]int

// Columns maps each breakpoint to its grid column count.
type Columns map[Breakpoint]int

// DefaultThresholds returns the stock pixel thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{LG: 1820, MD: 1400, SM: 1180, XS: 800, XXS: 5}
}

// ColumnsFor derives per-breakpoint column counts from the widest grid's count.
func ColumnsFor(columnCount int) Columns {
	return Columns{LG: columnCount, MD: 10, SM: 9, XS: 6, XXS: 3}
}

// For returns the breakpoint matching a viewport width, given the thresholds.
// Widths below every threshold map to the narrowest breakpoint.
func (t Thresholds) For(width int, order []Breakpoint) Breakpoint {
	for _, bp := range order {
		if width >= t[bp] {
			return bp
		}
	}
	if len(order) == 0 {
		return XXS
	}
	return order[len(order)-1]
}

// =============================================================================
// Item
// =============================================================================

// Responsive holds rules applied when fitting an item to narrower breakpoints.
type Responsive struct {
	// ExpandWidthBelow expands the width to MaxW (or the column count) below this breakpoint.
	ExpandWidthBelow Breakpoint `json:"expandWidthBelow,omitempty"`
	// ExpandHeightBelow expands the height to MaxH below this breakpoint.
	ExpandHeightBelow Breakpoint `json:"expandHeightBelow,omitempty"`
}

// Item is a single grid cell.
//
// Optional fields are pointers so that "unset" survives persistence; the grid
// rendering collaborator treats unset constraints as unbounded.
type Item struct {
	I              ID          `json:"i"`
	X              int         `json:"x"`
	Y              int         `json:"y"`
	W              int         `json:"w"`
	H              int         `json:"h"`
	MinW           *int        `json:"minW,omitempty"`
	MaxW           *int        `json:"maxW,omitempty"`
	MinH           *int        `json:"minH,omitempty"`
	MaxH           *int        `json:"maxH,omitempty"`
	IsResizable    *bool       `json:"isResizable,omitempty"`
	PreventResizeH *bool       `json:"preventResizeH,omitempty"`
	PreventResizeW *bool       `json:"preventResizeW,omitempty"`
	Responsive     *Responsive `json:"responsive,omitempty"`
}

// Int returns a pointer to v, for optional item fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional item fields.
func Bool(v bool) *bool { return &v }

// Clone returns a copy of the item that shares no pointers with it.
func (it Item) Clone() Item {
	out := it
	out.MinW = cloneInt(it.MinW)
	out.MaxW = cloneInt(it.MaxW)
	out.MinH = cloneInt(it.MinH)
	out.MaxH = cloneInt(it.MaxH)
	out.IsResizable = cloneBool(it.IsResizable)
	out.PreventResizeH = cloneBool(it.PreventResizeH)
	out.PreventResizeW = cloneBool(it.PreventResizeW)
	if it.Responsive != nil {
		r := *it.Responsive
		out.Responsive = &r
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Overlaps reports whether two items share at least one grid cell.
func Overlaps(a, b Item) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W &&
		a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// =============================================================================
// Layout
// =============================================================================

// Layout is an ordered list of items for one breakpoint.
type Layout []Item

// Copy returns an independent copy of l: no item or optional field is shared,
// so callers may mutate the result freely. Copy(nil) returns an empty layout.
func Copy(l Layout) Layout {
	out := make(Layout, len(l))
	for i, it := range l {
		out[i] = it.Clone()
	}
	return out
}

// IDs returns the item ids in layout order.
func (l Layout) IDs() []ID {
	ids := make([]ID, len(l))
	for i, it := range l {
		ids[i] = it.I
	}
	return ids
}

// Index returns the position of the item with the given id, or -1.
func (l Layout) Index(id ID) int {
	for i, it := range l {
		if it.I == id {
			return i
		}
	}
	return -1
}

// Find returns the item with the given id.
func (l Layout) Find(id ID) (Item, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Item{}, false
}

// Contains reports whether an item with the given id is present.
func (l Layout) Contains(id ID) bool { return l.Index(id) >= 0 }

// Without returns a new layout with every item carrying id removed.
func (l Layout) Without(id ID) Layout {
	out := make(Layout, 0, len(l))
	for _, it := range l {
		if it.I != id {
			out = append(out, it)
		}
	}
	return out
}

// Filter returns the items whose id is in keep, copied.
func (l Layout) Filter(keep map[ID]struct{}) Layout {
	out := make(Layout, 0, len(l))
	for _, it := range l {
		if _, ok := keep[it.I]; ok {
			out = append(out, it.Clone())
		}
	}
	return out
}

// HasOverlap reports whether any two items in l overlap.
func (l Layout) HasOverlap() bool {
	for i := range l {
		for j := i + 1; j < len(l); j++ {
			if Overlaps(l[i], l[j]) {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// Overrides
// =============================================================================

// Override is an explicit per-breakpoint size that bypasses fitting.
type Override struct {
	W *int `json:"w,omitempty"`
	H *int `json:"h,omitempty"`
}

// Overrides holds a widget's explicit sizes keyed by breakpoint.
type Overrides map[Breakpoint]Override

// OverridesMap maps item ids to their per-breakpoint overrides.
type OverridesMap map[ID]Overrides
