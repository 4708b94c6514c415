package catalog

import (
	"context"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// point is one category of a chart series with its comparison value.
type point struct {
	Label   string
	Value   float64
	Compare float64
}

type chartSpec struct {
	name      string
	kind      widget.Type
	series    string
	points    []point
	footer    string
	layout    layout.Item
	overrides layout.Overrides
}

func chartWidget(id layout.ID, opts Options, s chartSpec) *widget.Widget {
	l := s.layout
	l.I = id
	return &widget.Widget{
		Layout:              l,
		Type:                s.kind,
		DisplayName:         s.name,
		BreakpointOverrides: s.overrides,
		Initialize: func(ctx context.Context, in widget.InitParams) (widget.State, error) {
			if err := wait(ctx, opts.Latency); err != nil {
				return widget.State{}, err
			}
			return widget.State{
				Header: &widget.Header{Title: s.name, Subtitle: subtitle(in.Period)},
				Data:   chartData(s.kind, s.series, s.points, in.Period.Compared()),
				Footer: s.footer,
			}, nil
		},
	}
}

func chartData(kind widget.Type, series string, pts []point, compared bool) widget.Data {
	rows := make([]map[string]any, len(pts))
	for i, p := range pts {
		row := map[string]any{"category": p.Label, series: p.Value}
		if compared {
			row[series+"Compare"] = p.Compare
		}
		rows[i] = row
	}
	keys := []string{series}
	if compared {
		keys = append(keys, series+"Compare")
	}
	return widget.Data{"type": string(kind), "data": rows, "series": keys}
}

func chartLayout(w, h, minW, minH, maxH int, expandBelow layout.Breakpoint) layout.Item {
	it := layout.Item{
		W: w, H: h,
		MinW: layout.Int(minW), MinH: layout.Int(minH), MaxH: layout.Int(maxH),
	}
	if expandBelow != "" {
		it.Responsive = &layout.Responsive{ExpandWidthBelow: expandBelow}
	}
	return it
}

func featureAdoption(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "Feature Adoption", kind: widget.HorizontalBar, series: "adoption",
		points: []point{
			{"Dashboards", 82, 74}, {"Reports", 67, 61}, {"Alerts", 45, 38},
			{"Integrations", 39, 30}, {"API", 24, 19},
		},
		layout: chartLayout(4, 10, 3, 6, 12, layout.SM),
		overrides: layout.Overrides{
			layout.MD: {W: layout.Int(6)},
			layout.SM: {W: layout.Int(5), H: layout.Int(9)},
		},
	})
}

func mrrTrend(id layout.ID, o Options) *widget.Widget {
	l := chartLayout(4, 8, 4, 6, 12, layout.MD)
	l.MaxW = layout.Int(12)
	return chartWidget(id, o, chartSpec{
		name: "MRR Trend", kind: widget.Line, series: "mrr",
		points: []point{
			{"Jan", 98000, 90000}, {"Feb", 103500, 93000}, {"Mar", 108200, 97500},
			{"Apr", 112900, 101000}, {"May", 119300, 104800}, {"Jun", 125400, 109000},
		},
		layout: l,
	})
}

func churnByReason(id layout.ID, o Options) *widget.Widget {
	l := chartLayout(2, 8, 2, 6, 10, layout.XS)
	l.MaxW = layout.Int(8)
	return chartWidget(id, o, chartSpec{
		name: "Churn by Reason", kind: widget.Donut, series: "customers",
		points: []point{
			{"Price", 11, 13}, {"Missing features", 8, 9}, {"Switched vendor", 5, 7}, {"Other", 4, 4},
		},
		layout: l,
	})
}

func customerAcquisition(id layout.ID, o Options) *widget.Widget {
	l := chartLayout(2, 8, 2, 6, 10, layout.XS)
	l.MaxW = layout.Int(8)
	return chartWidget(id, o, chartSpec{
		name: "Customer Acquisition", kind: widget.Pie, series: "customers",
		points: []point{
			{"Organic", 148, 131}, {"Paid", 96, 102}, {"Referral", 54, 41}, {"Partners", 22, 18},
		},
		layout: l,
		overrides: layout.Overrides{
			layout.MD: {W: layout.Int(3)},
			layout.SM: {W: layout.Int(5)},
			layout.XS: {W: layout.Int(3)},
		},
	})
}

func revenueByPlan(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "Revenue by Plan", kind: widget.Bar, series: "revenue",
		points: []point{
			{"Starter", 18400, 16900}, {"Growth", 46200, 41000}, {"Business", 39800, 35600}, {"Enterprise", 21000, 18200},
		},
		layout:    chartLayout(4, 9, 4, 6, 12, layout.SM),
		overrides: layout.Overrides{layout.MD: {H: layout.Int(8)}},
	})
}

func signupTrend(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "Signup Trend", kind: widget.Line, series: "signups",
		points: []point{
			{"Mon", 120, 104}, {"Tue", 134, 118}, {"Wed", 128, 121},
			{"Thu", 151, 126}, {"Fri", 142, 133}, {"Sat", 88, 81}, {"Sun", 76, 70},
		},
		layout: chartLayout(4, 8, 4, 6, 14, layout.SM),
		overrides: layout.Overrides{
			layout.MD: {W: layout.Int(6), H: layout.Int(12)},
			layout.SM: {W: layout.Int(5), H: layout.Int(9)},
		},
	})
}

func revenueByRegion(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "Revenue by Region", kind: widget.Bar, series: "revenue",
		points: []point{
			{"North America", 52000, 45000}, {"EMEA", 38000, 32000}, {"APAC", 28000, 22000}, {"LATAM", 7400, 6000},
		},
		layout: chartLayout(4, 8, 4, 6, 12, layout.MD),
	})
}

func customerSegments(id layout.ID, o Options) *widget.Widget {
	l := chartLayout(2, 8, 2, 6, 10, layout.SM)
	l.MaxW = layout.Int(8)
	return chartWidget(id, o, chartSpec{
		name: "Customer Segments", kind: widget.Donut, series: "customers",
		points: []point{
			{"SMB", 612, 580}, {"Mid-market", 241, 226}, {"Enterprise", 58, 51},
		},
		layout: l,
	})
}

func conversionFunnel(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "Conversion Funnel", kind: widget.HorizontalBar, series: "visitors",
		points: []point{
			{"Visits", 48200, 45100}, {"Signups", 3420, 3180}, {"Activated", 1710, 1530}, {"Paid", 630, 550},
		},
		layout: chartLayout(4, 8, 2, 8, 14, ""),
	})
}

func arpuTrend(id layout.ID, o Options) *widget.Widget {
	return chartWidget(id, o, chartSpec{
		name: "ARPU Trend", kind: widget.Line, series: "arpu",
		points: []point{
			{"Jan", 128, 121}, {"Feb", 131, 122}, {"Mar", 133, 125},
			{"Apr", 136, 127}, {"May", 138, 130}, {"Jun", 141, 132},
		},
		footer: "Average revenue per paying account",
		layout: chartLayout(4, 8, 4, 6, 10, ""),
	})
}
