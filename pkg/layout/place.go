package layout

// FindSlot returns the best offset for an item of the given width on a grid
// whose columns are occupied up to columnHeights.
//
// The width is clamped to [1, len(columnHeights)]. Every offset x in
// [0, cols-width] is scored by the tallest column in [x, x+width); the lowest
// score wins and the left-most offset wins ties. y is that score, the row the
// item's top edge lands on.
func FindSlot(columnHeights []int, width int) (x, y int) {
	cols := len(columnHeights)
	if cols == 0 {
		return 0, 0
	}
	w := clampWidth(width, cols)

	bestX, bestY := 0, -1
	for x := 0; x <= cols-w; x++ {
		top := 0
		for i := x; i < x+w; i++ {
			if columnHeights[i] > top {
				top = columnHeights[i]
			}
		}
		if bestY < 0 || top < bestY {
			bestX, bestY = x, top
		}
	}
	return bestX, bestY
}

// occupy raises the columns covered by an item placed at (x, y) to its bottom edge.
func occupy(columnHeights []int, x, y, w, h int) {
	for i := x; i < x+w && i < len(columnHeights); i++ {
		columnHeights[i] = y + h
	}
}

func clampWidth(w, cols int) int {
	if w > cols {
		w = cols
	}
	if w < 1 {
		w = 1
	}
	return w
}

// PlaceAll positions items on a fresh grid of cols columns, in input order.
//
// Sizes default to 1x1 when unset, are clamped to MaxW/MaxH, and the width is
// clamped to the column count. Every other field (id, constraints, responsive
// rules) is preserved. The input is not mutated.
func PlaceAll(items []Item, cols int) Layout {
	if cols < 1 {
		cols = 1
	}
	heights := make([]int, cols)
	out := make(Layout, 0, len(items))

	for _, src := range items {
		it := src.Clone()
		w, h := it.W, it.H
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		if it.MaxW != nil && *it.MaxW < w {
			w = *it.MaxW
		}
		if it.MaxH != nil && *it.MaxH < h {
			h = *it.MaxH
		}
		w = clampWidth(w, cols)

		x, y := FindSlot(heights, w)
		occupy(heights, x, y, w, h)

		it.X, it.Y, it.W, it.H = x, y, w, h
		out = append(out, it)
	}
	return out
}

// ColumnHeights returns the occupancy height of each column for an existing
// layout: the largest bottom edge of any item covering that column.
func ColumnHeights(l Layout, cols int) []int {
	if cols < 1 {
		cols = 1
	}
	heights := make([]int, cols)
	for _, it := range l {
		for c := it.X; c < it.X+it.W && c < cols; c++ {
			if c < 0 {
				continue
			}
			if bottom := it.Y + it.H; bottom > heights[c] {
				heights[c] = bottom
			}
		}
	}
	return heights
}

// Append places item below or beside the existing layout at its best slot and
// returns the new layout. The input layout is not mutated.
func Append(l Layout, item Item, cols int) Layout {
	heights := ColumnHeights(l, cols)
	it := item.Clone()
	it.W = clampWidth(it.W, len(heights))
	if it.H < 1 {
		it.H = 1
	}
	it.X, it.Y = FindSlot(heights, it.W)

	out := Copy(l)
	return append(out, it)
}
