package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/dragdrop"
	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/theme"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// frameInterval paces redraws and the deferred work queued on the tick queue.
const frameInterval = 100 * time.Millisecond

// pixelsPerCell converts terminal columns to the pixel widths breakpoint
// thresholds are expressed in.
const pixelsPerCell = 16

type frameMsg time.Time

// statusMsg reports the outcome of a command run off the update loop.
type statusMsg struct {
	text string
	err  error
}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// =============================================================================
// DashboardModel - Interactive terminal dashboard
// =============================================================================

// DashboardModel is the bubbletea model of the terminal dashboard.
type DashboardModel struct {
	ctx    context.Context
	d      *dashboard.Dashboard
	ticks  *grid.TickQueue
	grid   *termGrid
	doc    *termDocument
	colors []string

	selected int
	palette  int
	presets  int

	dragging   bool
	dragItem   layout.Item
	pointerCol int
	pointerRow int

	followWindow bool
	status       string
	statusErr    bool
}

// NewDashboardModel mounts a terminal renderer on d's drag coordinator.
// ticks must be the scheduler d was built with.
func NewDashboardModel(ctx context.Context, d *dashboard.Dashboard, ticks *grid.TickQueue, th theme.Config) DashboardModel {
	g := newTermGrid(d.Live(), d.Layouts().ActiveColumns)
	doc := &termDocument{}
	d.Coordinator().Mount(g, termContainer{g: g})
	d.Coordinator().SetDocument(doc)

	presets := 0
	for i, c := range period.Codes {
		if c == period.DefaultCode {
			presets = i
		}
	}
	return DashboardModel{
		ctx:          ctx,
		d:            d,
		ticks:        ticks,
		grid:         g,
		doc:          doc,
		colors:       th.MainPalette(),
		presets:      presets,
		followWindow: true,
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(nextFrame(), m.run("Loaded widgets", func(ctx context.Context) error {
		if failed := m.d.Refresh(ctx); failed > 0 {
			return fmt.Errorf("%d widgets failed to load", failed)
		}
		return nil
	}))
}

// run executes fn off the update loop and reports ok or its error.
func (m DashboardModel) run(ok string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: ok}
	}
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.ticks.Flush()
		return m, nextFrame()
	case statusMsg:
		m.setStatus(msg.text, msg.err)
		return m, nil
	case tea.WindowSizeMsg:
		if m.followWindow {
			cfg := m.d.Config()
			bp := cfg.Thresholds.For(msg.Width*pixelsPerCell, m.d.Layouts().Order())
			if err := m.d.HandleBreakpointChange(m.ctx, bp); err != nil {
				m.setStatus("", err)
			}
		}
		return m, nil
	case tea.KeyMsg:
		if m.dragging {
			return m.updateDrag(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *DashboardModel) setStatus(text string, err error) {
	if err != nil {
		m.status, m.statusErr = errors.UserMessage(err), true
		return
	}
	m.status, m.statusErr = text, false
}

// selectedID returns the id of the selected dashboard item.
func (m DashboardModel) selectedID() (layout.ID, bool) {
	ids := m.d.Live().Layout().IDs()
	if len(ids) == 0 {
		return "", false
	}
	return ids[clampIndex(m.selected, len(ids))], true
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func (m DashboardModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	edit := m.d.EditMode()

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.selected++
		return m, nil
	case "shift+tab":
		m.selected--
		return m, nil
	case "left", "right", "up", "down":
		if !edit {
			if key == "left" || key == "up" {
				m.selected--
			} else {
				m.selected++
			}
			return m, nil
		}
		return m, m.moveSelected(key)
	case "r", "R":
		return m, m.run("Refreshed", func(ctx context.Context) error {
			if failed := m.d.Refresh(ctx); failed > 0 {
				return fmt.Errorf("%d widgets failed to load", failed)
			}
			return nil
		})
	case "[":
		m.palette--
		return m, nil
	case "]":
		m.palette++
		return m, nil
	case "s":
		if id, ok := m.d.SimulateError(); ok {
			m.setStatus(fmt.Sprintf("Widget %s now fails", id), nil)
		}
		return m, nil
	case "l":
		if id, ok := m.d.SimulateLoading(); ok {
			m.setStatus(fmt.Sprintf("Widget %s is loading", id), nil)
		}
		return m, nil
	case "p":
		m.presets++
		code := period.Codes[clampIndex(m.presets, len(period.Codes))]
		return m, m.run("Period "+string(code), func(ctx context.Context) error {
			return m.d.SetPreset(ctx, code, false)
		})
	case "1", "2", "3", "4", "5":
		bp := layout.Breakpoints[int(key[0]-'1')]
		m.followWindow = false
		if err := m.d.HandleBreakpointChange(m.ctx, bp); err != nil {
			m.setStatus("", err)
		} else {
			m.setStatus("Breakpoint "+string(bp), nil)
		}
		return m, nil
	case "d", "a", "g":
		if !edit {
			m.setStatus("Press e to edit the layout", nil)
			return m, nil
		}
		return m.updateEdit(key)
	}

	if m.d.HandleKey(m.ctx, key, false) {
		if m.d.EditMode() {
			m.setStatus("Editing", nil)
		} else {
			m.setStatus("", nil)
		}
	}
	return m, nil
}

func (m DashboardModel) updateEdit(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "d":
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		return m, m.run("Removed "+string(id), func(ctx context.Context) error {
			return m.d.RemoveWidget(ctx, id)
		})
	case "a":
		w, ok := m.paletteWidget()
		if !ok {
			m.setStatus("Palette is empty", nil)
			return m, nil
		}
		return m, m.run("Added "+w.DisplayName, func(ctx context.Context) error {
			return m.d.AddFromPalette(ctx, w.ID)
		})
	case "g":
		return m.startDrag()
	}
	return m, nil
}

func (m DashboardModel) paletteWidget() (dashboard.WidgetView, bool) {
	p := m.d.Snapshot().Palette
	if len(p) == 0 {
		return dashboard.WidgetView{}, false
	}
	return p[clampIndex(m.palette, len(p))], true
}

func (m DashboardModel) moveSelected(key string) tea.Cmd {
	id, ok := m.selectedID()
	if !ok {
		return nil
	}
	it, _ := m.d.Live().Layout().Find(id)
	x, y := it.X, it.Y
	switch key {
	case "left":
		x--
	case "right":
		x++
	case "up":
		y--
	case "down":
		y++
	}
	x = max(0, min(x, m.d.Layouts().ActiveColumns()-it.W))
	if err := m.d.MoveItem(m.ctx, id, x, max(y, 0)); err != nil {
		return func() tea.Msg { return statusMsg{err: err} }
	}
	return nil
}

// =============================================================================
// Dragging from the palette
// =============================================================================

func (m DashboardModel) startDrag() (tea.Model, tea.Cmd) {
	w, ok := m.paletteWidget()
	if !ok {
		m.setStatus("Palette is empty", nil)
		return m, nil
	}
	m.dragItem = w.Layout.Clone()
	m.dragItem.I = w.ID
	ev := dragdrop.DragEvent{Target: paletteElement(w.ID)}
	if err := m.d.Coordinator().HandleDragStart(ev, &m.dragItem); err != nil {
		m.setStatus("", err)
		return m, nil
	}
	m.dragging = true
	m.pointerCol, m.pointerRow = 0, 0
	m.drag()
	m.setStatus("Dragging "+w.DisplayName+": arrows move, enter drops, esc cancels", nil)
	return m, nil
}

// drag moves the pointer to the current cell and previews the drop.
func (m DashboardModel) drag() {
	c := m.d.Coordinator()
	c.MovePointer(pointerAt(m.pointerCol, m.pointerRow))
	c.HandleDrag(&m.dragItem)
}

func (m DashboardModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left":
		m.pointerCol = max(m.pointerCol-1, 0)
	case "right":
		m.pointerCol = min(m.pointerCol+1, m.d.Layouts().ActiveColumns()-1)
	case "up":
		// One row above the grid is outside the container.
		m.pointerRow = max(m.pointerRow-1, -1)
	case "down":
		m.pointerRow++
	case "esc", "ctrl+c", "q":
		m.d.Coordinator().Abort()
		m.dragging = false
		_, _, err := m.d.EndDrag(m.ctx)
		m.setStatus("Drag cancelled", err)
		return m, nil
	case "enter":
		m.dragging = false
		name := m.dragItem.I
		return m, func() tea.Msg {
			item, ok, err := m.d.EndDrag(m.ctx)
			switch {
			case err != nil:
				return statusMsg{err: err}
			case !ok:
				return statusMsg{text: "Dropped outside the grid"}
			}
			return statusMsg{text: fmt.Sprintf("Dropped %s at %d,%d", name, item.X, item.Y)}
		}
	default:
		return m, nil
	}
	m.drag()
	return m, nil
}

// =============================================================================
// View
// =============================================================================

func (m DashboardModel) View() string {
	v := m.d.Snapshot()
	var b strings.Builder

	mode := listDimStyle.Render("view")
	if v.EditMode {
		mode = StyleWarning.Render("edit")
	}
	b.WriteString(StyleTitle.Render("Gridboard"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %d cols · ", v.ActiveBreakpoint, v.Cols)))
	b.WriteString(mode)
	b.WriteString(listDimStyle.Render(" · " + formatPeriod(v.Period)))
	b.WriteString("\n\n")

	labels := make(map[layout.ID]string, len(v.Widgets)+len(v.Palette))
	marks := make(map[layout.ID]string, len(v.Widgets))
	dimmed := make(map[layout.ID]bool)
	for _, w := range v.Widgets {
		labels[w.ID] = w.DisplayName
		marks[w.ID], dimmed[w.ID] = widgetMark(w)
	}
	for _, w := range v.Palette {
		labels[w.ID] = w.DisplayName
		if m.dragging && w.ID == m.dragItem.I {
			marks[w.ID] = "drop here"
		}
	}
	sel, _ := m.selectedID()
	if m.dragging {
		sel = m.dragItem.I
	}
	b.WriteString(gridView{
		cols:     v.Cols,
		labels:   labels,
		colours:  m.colors,
		selected: sel,
		dimmed:   dimmed,
		marks:    marks,
	}.render(v.Layout))
	b.WriteString("\n\n")

	b.WriteString(listDimStyle.Render("Palette: "))
	if len(v.Palette) == 0 {
		b.WriteString(listDimStyle.Render("empty"))
	}
	pi := clampIndex(m.palette, len(v.Palette))
	for i, w := range v.Palette {
		if i > 0 {
			b.WriteString(listDimStyle.Render("  "))
		}
		if i == pi {
			b.WriteString(listSelectedStyle.Render("▸ " + w.DisplayName))
		} else {
			b.WriteString(listNormalStyle.Render(w.DisplayName))
		}
	}
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(StyleError.Render(m.status))
		} else {
			b.WriteString(StyleSuccess.Render(m.status))
		}
	}
	b.WriteString("\n")

	help := "tab select  e edit  r refresh  p period  1-5 breakpoint  s/l simulate  q quit"
	if v.EditMode {
		help = "arrows move  d remove  [ ] palette  a add  g drag  esc done  q quit"
	}
	if m.dragging {
		help = "arrows move pointer  enter drop  esc cancel"
	}
	b.WriteString(listDimStyle.Render(help))
	return b.String()
}

// widgetMark summarizes a widget's runtime state for its box.
func widgetMark(w dashboard.WidgetView) (mark string, dim bool) {
	rt := w.Runtime
	switch {
	case rt == nil:
		return "", false
	case rt.Loading:
		return "⟳ loading", true
	case rt.Error != nil:
		return "✗ " + *rt.Error, false
	case rt.Footer != "":
		return rt.Footer, false
	case rt.Header != nil && rt.Header.Subtitle != "":
		return rt.Header.Subtitle, false
	}
	return "●", false
}

func formatPeriod(p period.Period) string {
	s := p.From.Format(time.DateOnly) + " → " + p.To.Format(time.DateOnly)
	if p.Compared() {
		s += " (compared)"
	}
	return s
}
