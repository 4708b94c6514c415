// Package catalog provides a sample SaaS analytics widget set with
// deterministic data. The CLI demo, the HTTP server and tests build their
// dashboards from it.
package catalog

import (
	"context"
	"time"

	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// PaletteStart is the first id assigned to palette widgets.
const PaletteStart = 100

// Options tunes the sample widgets.
type Options struct {
	// Latency is the simulated fetch delay of every initializer.
	Latency time.Duration
	// TickInterval is the live ticker's update interval. Zero means 1.5s.
	TickInterval time.Duration
}

// Dashboard returns the default dashboard widgets positioned for a grid of
// cols columns.
func Dashboard(cols int, opts Options) []*widget.Widget {
	return positioned(cols, 0, []builder{
		nrrKPI, activeUsersKPI, mrrKPI, arrKPI,
		featureAdoption, trialConversionKPI, churnRateKPI,
		mrrTrend, churnByReason, customerAcquisition,
		revenueByPlan, signupTrend, revenueByRegion,
	}, opts)
}

// Palette returns the widgets available to add, positioned for a grid of cols
// columns with ids from PaletteStart.
func Palette(cols int, opts Options) []*widget.Widget {
	return positioned(cols, PaletteStart, []builder{
		customerSegments, conversionFunnel, arpuTrend,
		func(id layout.ID, o Options) *widget.Widget { return LiveTicker(id, o) },
	}, opts)
}

type builder func(id layout.ID, opts Options) *widget.Widget

// positioned assigns sequential ids from start and packs the widgets onto an
// empty grid in order, ignoring their authored positions.
func positioned(cols, start int, bs []builder, opts Options) []*widget.Widget {
	ws := make([]*widget.Widget, len(bs))
	items := make([]layout.Item, len(bs))
	for i, b := range bs {
		ws[i] = b(layout.IntID(start+i), opts)
		items[i] = ws[i].Layout
	}
	for i, it := range layout.PlaceAll(items, cols) {
		ws[i].Layout.X, ws[i].Layout.Y = it.X, it.Y
	}
	return ws
}

// wait simulates fetch latency.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// subtitle renders the period for chart headers.
func subtitle(p period.Period) string {
	s := p.From.Format("Jan 2") + " - " + p.To.Format("Jan 2, 2006")
	if p.Compared() {
		s += " vs previous"
	}
	return s
}
