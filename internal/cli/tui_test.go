package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/theme"
	"github.com/matzehuels/gridboard/pkg/widget"
)

func testWidget(id layout.ID, name string, w, h int) *widget.Widget {
	return &widget.Widget{
		Layout:      layout.Item{I: id, W: w, H: h},
		Type:        widget.Bar,
		DisplayName: name,
		Initialize: func(context.Context, widget.InitParams) (widget.State, error) {
			return widget.State{Footer: "updated"}, nil
		},
	}
}

func newTestModel(t *testing.T) (DashboardModel, *dashboard.Dashboard, *grid.TickQueue) {
	t.Helper()
	ctx := context.Background()
	ticks := &grid.TickQueue{}
	d, err := dashboard.New(ctx, dashboard.Options{
		Widgets: []*widget.Widget{
			testWidget("1", "Signups", 4, 4),
			testWidget("2", "Revenue", 4, 4),
		},
		Palette:   []*widget.Widget{testWidget("100", "Churn", 3, 4)},
		Backend:   storage.NewMemoryBackend(),
		Scheduler: ticks,
		Logger:    log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("dashboard.New() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewDashboardModel(ctx, d, ticks, theme.Default()), d, ticks
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys to the model, running any command that reports a status.
func press(m DashboardModel, keys ...string) DashboardModel {
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = next.(DashboardModel)
		if cmd == nil {
			continue
		}
		if st, ok := cmd().(statusMsg); ok {
			next, _ = m.Update(st)
			m = next.(DashboardModel)
		}
	}
	return m
}

func frame(m DashboardModel) DashboardModel {
	next, _ := m.Update(frameMsg(time.Now()))
	return next.(DashboardModel)
}

func TestDashboardModelEditGate(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = press(m, "d")
	if d.Widgets().Dashboard().Len() != 2 {
		t.Fatal("d outside edit mode should not remove a widget")
	}
	if !strings.Contains(m.status, "Press e") {
		t.Errorf("status = %q, want an edit hint", m.status)
	}

	m = press(m, "e")
	if !d.EditMode() {
		t.Fatal("e should enter edit mode")
	}
	m = press(m, "esc")
	if d.EditMode() {
		t.Fatal("esc should leave edit mode")
	}
}

func TestDashboardModelMoveSelected(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = press(m, "tab", "e", "down", "right")
	id, _ := m.selectedID()
	if id != "2" {
		t.Fatalf("selected %s, want 2", id)
	}
	it, _ := d.Live().Layout().Find("2")
	if it.X != 5 || it.Y != 1 {
		t.Errorf("item 2 at %d,%d, want 5,1", it.X, it.Y)
	}

	// Moves stop at the right edge.
	m = press(m, "right", "right", "right", "right")
	it, _ = d.Live().Layout().Find("2")
	if it.X != 8 {
		t.Errorf("item 2 at x=%d, want 8 on a 12-column grid", it.X)
	}
}

func TestDashboardModelRemoveAndAdd(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = press(m, "e", "d")
	if got := d.Widgets().Dashboard().IDs(); len(got) != 1 || got[0] != "2" {
		t.Fatalf("dashboard = %v, want [2]", got)
	}
	if !d.Widgets().Palette().Contains("1") {
		t.Error("removed widget should return to the palette")
	}

	m = press(m, "a")
	if d.Widgets().Dashboard().Len() != 2 {
		t.Fatalf("a should add a palette widget, dashboard = %v", d.Widgets().Dashboard().IDs())
	}
	if m.statusErr {
		t.Errorf("unexpected error status %q", m.status)
	}
}

func TestDashboardModelDragDrop(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = press(m, "e", "g")
	if !m.dragging {
		t.Fatal("g should start a drag")
	}
	if !d.Live().Layout().Contains("100") {
		t.Fatal("the placeholder should be on the grid while the pointer is over it")
	}
	if m.doc.Ghosts() != 1 {
		t.Fatalf("ghosts = %d, want 1 before the next frame", m.doc.Ghosts())
	}
	m = frame(m)
	if m.doc.Ghosts() != 0 {
		t.Errorf("ghosts = %d, want 0 after a frame", m.doc.Ghosts())
	}

	m = press(m, "down", "down", "down", "down", "right")
	it, _ := d.Live().Layout().Find("100")
	if it.X != 1 || it.Y != 4 {
		t.Errorf("placeholder at %d,%d, want 1,4", it.X, it.Y)
	}

	m = press(m, "enter")
	if m.dragging {
		t.Fatal("enter should end the drag")
	}
	if !d.Widgets().Dashboard().Contains("100") {
		t.Fatalf("dropped widget should join the dashboard, status %q", m.status)
	}
	if d.Widgets().Palette().Contains("100") {
		t.Error("dropped widget should leave the palette")
	}
	if rt := d.Widgets().Runtime("100"); rt.Footer != "updated" {
		t.Errorf("dropped widget runtime = %+v, want it loaded", rt)
	}
}

func TestDashboardModelDragCancel(t *testing.T) {
	m, d, _ := newTestModel(t)
	before := d.Live().Layout()

	m = press(m, "e", "g", "down", "esc")
	if m.dragging {
		t.Fatal("esc should end the drag")
	}
	if d.Live().Layout().Contains("100") {
		t.Error("a cancelled drag should withdraw the placeholder")
	}
	if got := d.Live().Layout(); len(got) != len(before) {
		t.Errorf("layout has %d items, want %d", len(got), len(before))
	}
	if !d.Widgets().Palette().Contains("100") {
		t.Error("the widget should stay in the palette")
	}
}

func TestDashboardModelDropOutside(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = press(m, "e", "g", "up")
	if d.Live().Layout().Contains("100") {
		t.Fatal("leaving the grid should withdraw the placeholder")
	}
	m = press(m, "enter")
	if d.Widgets().Dashboard().Contains("100") {
		t.Error("a drop outside the grid should not add the widget")
	}
	if m.status != "Dropped outside the grid" {
		t.Errorf("status = %q", m.status)
	}
}

func TestDashboardModelBreakpointKeys(t *testing.T) {
	m, d, ticks := newTestModel(t)

	m = press(m, "5")
	if ticks.Len() == 0 {
		t.Fatal("the layout swap should wait for the next frame")
	}
	m = frame(m)
	if got := d.Layouts().Active(); got != layout.XXS {
		t.Errorf("active = %s, want xxs", got)
	}
	if m.followWindow {
		t.Error("a breakpoint key should stop following the window")
	}
	for _, it := range d.Live().Layout() {
		if it.X+it.W > 3 {
			t.Errorf("item %s spans to column %d on a 3-column grid", it.I, it.X+it.W)
		}
	}

	// Window resizes are ignored once a breakpoint was picked.
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	m = frame(next.(DashboardModel))
	if got := d.Layouts().Active(); got != layout.XXS {
		t.Errorf("active = %s after resize, want xxs", got)
	}
}

func TestDashboardModelFollowsWindow(t *testing.T) {
	m, d, _ := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 40})
	frame(next.(DashboardModel))
	// 60 cells is 960px: between the xs and sm thresholds.
	if got := d.Layouts().Active(); got != layout.XS {
		t.Errorf("active = %s, want xs", got)
	}
}

func TestDashboardModelView(t *testing.T) {
	m, d, _ := newTestModel(t)
	d.Refresh(context.Background())

	out := strings.Join(plain(m.View()), "\n")
	for _, want := range []string{"Gridboard", "Signups", "Revenue", "Palette:", "Churn", "updated"} {
		if !strings.Contains(out, want) {
			t.Errorf("view does not contain %q:\n%s", want, out)
		}
	}

	m = press(m, "e")
	if out := strings.Join(plain(m.View()), "\n"); !strings.Contains(out, "g drag") {
		t.Errorf("edit mode help missing:\n%s", out)
	}
}
