// Package widget defines dashboard widgets and tracks their runtime state.
//
// A Widget is a static definition: where it sits on the grid, what kind of
// chart it renders and how to load its data. Loading, data, errors and footers
// live in a Runtime record owned by the Manager, keyed by the widget's layout
// id. Widgets move between two Collections, the dashboard and the palette,
// as the user drags them on and off the grid.
package widget

import (
	"context"
	"sync"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
)

// Type is the visual kind of a widget.
type Type string

const (
	Pie           Type = "pie"
	Bar           Type = "bar"
	HorizontalBar Type = "horizontalBar"
	Donut         Type = "donut"
	KPI           Type = "kpi"
	Line          Type = "line"
)

// Valid reports whether t is a known widget type.
func (t Type) Valid() bool {
	switch t {
	case Pie, Bar, HorizontalBar, Donut, KPI, Line:
		return true
	}
	return false
}

// Header is the title block shown above a widget.
type Header struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Tooltip  string `json:"tooltip,omitempty"`
}

// Data is a widget's render payload.
type Data map[string]any

// Merge returns a copy of d with the keys of update replacing its own.
func (d Data) Merge(update Data) Data {
	out := make(Data, len(d)+len(update))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}

// State is what a widget's initializer produces.
type State struct {
	Header *Header
	Data   Data
	Footer string
}

// Callbacks let a widget act on the dashboard after it has loaded.
type Callbacks struct {
	// UpdateData merges fresh data into the widget's runtime record.
	UpdateData func(Data)
	// ResizeWidget asks the grid to resize the widget. A zero size leaves
	// that dimension alone.
	ResizeWidget func(h, w int)
}

// InitParams is passed to a widget's initializer.
type InitParams struct {
	Period    period.Period
	Params    map[string]any
	Callbacks Callbacks
}

// InitFunc loads a widget's data.
type InitFunc func(ctx context.Context, p InitParams) (State, error)

// Widget is a dashboard widget definition. Apart from the custom slot it is
// not modified after construction.
type Widget struct {
	Layout         layout.Item
	Type           Type
	DisplayName    string
	SkipDateFilter bool
	Initialize     InitFunc
	// BreakpointOverrides are explicit sizes that bypass fitting.
	BreakpointOverrides layout.Overrides
	// Teardown releases resources the widget holds in its custom slot. The
	// code removing the widget from the dashboard must call it.
	Teardown func(*Widget)

	mu     sync.Mutex
	custom any
}

// ID returns the widget's layout id.
func (w *Widget) ID() layout.ID { return w.Layout.I }

// Custom returns the widget-owned custom value.
func (w *Widget) Custom() any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.custom
}

// SetCustom replaces the widget-owned custom value and returns the old one.
func (w *Widget) SetCustom(v any) (old any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	old, w.custom = w.custom, v
	return old
}

// Release calls the widget's teardown hook, if any.
func (w *Widget) Release() {
	if w.Teardown != nil {
		w.Teardown(w)
	}
}

// Runtime is the ephemeral state of one widget.
type Runtime struct {
	Loading bool    `json:"loading"`
	Header  *Header `json:"header,omitempty"`
	Data    Data    `json:"data,omitempty"`
	Error   *string `json:"error"`
	Footer  string  `json:"footer,omitempty"`
}

func (r Runtime) clone() Runtime {
	if r.Header != nil {
		h := *r.Header
		r.Header = &h
	}
	if r.Data != nil {
		r.Data = r.Data.Merge(nil)
	}
	if r.Error != nil {
		e := *r.Error
		r.Error = &e
	}
	return r
}
