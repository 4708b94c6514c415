package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridboard/pkg/layout"
)

// cellWidth is the width of one grid column in terminal cells. One grid row
// is one terminal line.
const cellWidth = 6

// gridView draws a layout as boxes on a character canvas.
type gridView struct {
	cols   int
	labels map[layout.ID]string
	// colours cycles per item; selected and dimmed items override it.
	colours  []string
	selected layout.ID
	dimmed   map[layout.ID]bool
	marks    map[layout.ID]string
}

type canvasCell struct {
	r     rune
	owner int
}

// render returns the layout drawn on a canvas cols*cellWidth wide.
func (v gridView) render(l layout.Layout) string {
	width := max(v.cols, 1) * cellWidth
	height := 0
	for _, it := range l {
		height = max(height, it.Y+it.H)
	}
	if height == 0 {
		return StyleDim.Render(strings.Repeat("·", width))
	}

	canvas := make([][]canvasCell, height)
	for y := range canvas {
		canvas[y] = make([]canvasCell, width)
		for x := range canvas[y] {
			canvas[y][x] = canvasCell{r: ' ', owner: -1}
		}
	}

	for i, it := range l {
		x0, x1 := it.X*cellWidth, min((it.X+it.W)*cellWidth, width)-1
		y0, y1 := it.Y, it.Y+max(it.H, 1)-1
		if x1 <= x0 {
			continue
		}
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				r := ' '
				switch {
				case y == y0 && x == x0:
					r = '┌'
				case y == y0 && x == x1:
					r = '┐'
				case y == y1 && x == x0:
					r = '└'
				case y == y1 && x == x1:
					r = '┘'
				case y == y0 || y == y1:
					r = '─'
				case x == x0 || x == x1:
					r = '│'
				}
				canvas[y][x] = canvasCell{r: r, owner: i}
			}
		}
		if y1 > y0+1 {
			v.label(canvas[y0+1][x0+1:x1], v.title(it), i)
		}
		if mark := v.marks[it.I]; mark != "" && y1 > y0+2 {
			v.label(canvas[y0+2][x0+1:x1], mark, i)
		}
	}

	var b strings.Builder
	for y, row := range canvas {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].owner == row[start].owner {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.r)
			}
			b.WriteString(v.style(l, row[start].owner).Render(run.String()))
			start = x
		}
	}
	return b.String()
}

func (v gridView) title(it layout.Item) string {
	if s, ok := v.labels[it.I]; ok {
		return s
	}
	return string(it.I)
}

// label writes s into row, truncated, keeping a one-cell pad.
func (v gridView) label(row []canvasCell, s string, owner int) {
	runes := []rune(s)
	for i := 0; i+1 < len(row) && i < len(runes); i++ {
		row[i+1] = canvasCell{r: runes[i], owner: owner}
	}
}

func (v gridView) style(l layout.Layout, owner int) lipgloss.Style {
	if owner < 0 {
		return lipgloss.NewStyle()
	}
	it := l[owner]
	switch {
	case it.I == v.selected:
		return lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	case v.dimmed[it.I]:
		return StyleDim
	case len(v.colours) > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(v.colours[owner%len(v.colours)]))
	}
	return StyleValue
}
