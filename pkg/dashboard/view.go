package dashboard

import (
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// WidgetView is one widget as the renderer sees it.
type WidgetView struct {
	ID             layout.ID       `json:"id"`
	Type           widget.Type     `json:"type"`
	DisplayName    string          `json:"displayName"`
	Layout         layout.Item     `json:"layout"`
	SkipDateFilter bool            `json:"skipDateFilter,omitempty"`
	Runtime        *widget.Runtime `json:"runtime,omitempty"`
	Params         map[string]any  `json:"params,omitempty"`
}

// View is a point-in-time picture of the whole dashboard.
type View struct {
	ActiveBreakpoint layout.Breakpoint `json:"activeBreakpoint"`
	Cols             int               `json:"cols"`
	Initialized      bool              `json:"initialized"`
	IsMobile         bool              `json:"isMobile"`
	EditMode         bool              `json:"editMode"`
	Layout           layout.Layout     `json:"layout"`
	Widgets          []WidgetView      `json:"widgets"`
	Palette          []WidgetView      `json:"palette"`
	Period           period.Period     `json:"period"`
}

// Snapshot returns the current view. Dashboard widgets carry their runtime
// record; palette widgets do not.
func (d *Dashboard) Snapshot() View {
	v := View{
		ActiveBreakpoint: d.layouts.Active(),
		Cols:             d.layouts.ActiveColumns(),
		Initialized:      d.layouts.Initialized(),
		IsMobile:         d.layouts.IsMobile(),
		EditMode:         d.EditMode(),
		Layout:           d.live.Layout(),
		Period:           d.Period(),
		Widgets:          []WidgetView{},
		Palette:          []WidgetView{},
	}
	for _, w := range d.widgets.Dashboard().List() {
		wv := viewOf(w)
		rt := d.widgets.Runtime(w.ID())
		wv.Runtime = &rt
		wv.Params = d.widgets.Params(w.ID())
		if it, ok := v.Layout.Find(w.ID()); ok {
			wv.Layout = it
		}
		v.Widgets = append(v.Widgets, wv)
	}
	for _, w := range d.widgets.Palette().List() {
		v.Palette = append(v.Palette, viewOf(w))
	}
	return v
}

func viewOf(w *widget.Widget) WidgetView {
	return WidgetView{
		ID:             w.ID(),
		Type:           w.Type,
		DisplayName:    w.DisplayName,
		Layout:         w.Layout.Clone(),
		SkipDateFilter: w.SkipDateFilter,
	}
}
