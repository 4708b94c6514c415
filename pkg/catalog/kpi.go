package catalog

import (
	"context"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// kpiItem is one line of a KPI card.
type kpiItem struct {
	Leading string
	Label   string
	Compare string
	Growth  bool
	Change  string
}

type kpiSpec struct {
	name      string
	title     string
	growth    string
	items     []kpiItem
	layout    layout.Item
	overrides layout.Overrides
}

func kpiWidget(id layout.ID, opts Options, s kpiSpec) *widget.Widget {
	l := s.layout
	l.I = id
	return &widget.Widget{
		Layout:              l,
		Type:                widget.KPI,
		DisplayName:         s.name,
		BreakpointOverrides: s.overrides,
		Initialize: func(ctx context.Context, in widget.InitParams) (widget.State, error) {
			if err := wait(ctx, opts.Latency); err != nil {
				return widget.State{}, err
			}
			compared := in.Period.Compared()
			items := make([]map[string]any, len(s.items))
			for i, it := range s.items {
				m := map[string]any{
					"leadingLabel": it.Leading,
					"label":        it.Label,
					"growth":       it.Growth,
					"growthLabel":  it.Change,
					"size":         "small",
				}
				if compared && it.Compare != "" {
					m["compareLabel"] = it.Compare
				}
				items[i] = m
			}
			return widget.State{
				Header: &widget.Header{Title: s.title, Subtitle: s.name, Tooltip: s.growth},
				Data:   widget.Data{"items": items},
			}, nil
		},
	}
}

func kpiLayout(w, maxW int, expandBelow layout.Breakpoint) layout.Item {
	return layout.Item{
		W: w, H: 3,
		MinW: layout.Int(2), MaxW: layout.Int(maxW),
		MinH: layout.Int(3), MaxH: layout.Int(3),
		Responsive: &layout.Responsive{ExpandWidthBelow: expandBelow},
	}
}

func nrrKPI(id layout.ID, o Options) *widget.Widget {
	return kpiWidget(id, o, kpiSpec{
		name: "Net Revenue Retention", title: "112%", growth: "+3%",
		items: []kpiItem{
			{Leading: "Expansion", Label: "$18,000", Compare: "$15,500", Growth: true, Change: "+16%"},
		},
		layout:    kpiLayout(2, 4, layout.XS),
		overrides: layout.Overrides{layout.XS: {W: layout.Int(3)}},
	})
}

func activeUsersKPI(id layout.ID, o Options) *widget.Widget {
	return kpiWidget(id, o, kpiSpec{
		name: "Active Users", title: "8,450", growth: "+5.1%",
		items: []kpiItem{
			{Leading: "Daily", Label: "8,450", Compare: "8,040", Growth: true, Change: "+5%"},
			{Leading: "Monthly", Label: "24,200", Compare: "22,900", Growth: true, Change: "+6%"},
		},
		layout: kpiLayout(2, 4, layout.XS),
		overrides: layout.Overrides{
			layout.SM: {W: layout.Int(3)},
			layout.XS: {W: layout.Int(3)},
		},
	})
}

func mrrKPI(id layout.ID, o Options) *widget.Widget {
	l := kpiLayout(4, 6, layout.SM)
	l.IsResizable = layout.Bool(true)
	return kpiWidget(id, o, kpiSpec{
		name: "Monthly Recurring Revenue", title: "$125,400", growth: "+8.2%",
		items: []kpiItem{
			{Leading: "New MRR", Label: "$12,500", Compare: "$10,800", Growth: true, Change: "+15%"},
			{Leading: "Churned MRR", Label: "$4,200", Compare: "$4,500", Growth: true, Change: "-7%"},
		},
		layout:    l,
		overrides: layout.Overrides{layout.MD: {W: layout.Int(2)}},
	})
}

func arrKPI(id layout.ID, o Options) *widget.Widget {
	return kpiWidget(id, o, kpiSpec{
		name: "Annual Recurring Revenue", title: "$1.5M", growth: "+9.4%",
		items: []kpiItem{
			{Leading: "New", Label: "$180,000", Compare: "$150,000", Growth: true, Change: "+20%"},
			{Leading: "Churned", Label: "$45,000", Compare: "$52,000", Growth: true, Change: "-13%"},
			{Leading: "Expansion", Label: "$210,000", Compare: "$190,000", Growth: true, Change: "+11%"},
		},
		layout: kpiLayout(4, 6, layout.SM),
	})
}

func trialConversionKPI(id layout.ID, o Options) *widget.Widget {
	return kpiWidget(id, o, kpiSpec{
		name: "Trial Conversion", title: "18.5%", growth: "+1.2%",
		items: []kpiItem{
			{Leading: "Trials", Label: "342", Compare: "318", Growth: true, Change: "+8%"},
			{Leading: "Converted", Label: "63", Compare: "55", Growth: true, Change: "+15%"},
			{Leading: "Pending", Label: "28", Compare: "31", Growth: false, Change: "-10%"},
		},
		layout: kpiLayout(4, 6, layout.SM),
	})
}

func churnRateKPI(id layout.ID, o Options) *widget.Widget {
	return kpiWidget(id, o, kpiSpec{
		name: "Churn Rate", title: "2.4%", growth: "-0.3%",
		items: []kpiItem{
			{Leading: "Churned", Label: "28", Compare: "33", Growth: true, Change: "-15%"},
			{Leading: "At risk", Label: "15", Compare: "12", Growth: false, Change: "+25%"},
		},
		layout: kpiLayout(4, 6, layout.SM),
	})
}
