package layout

import (
	"sort"

	"github.com/matzehuels/gridboard/pkg/errors"
)

// FitOptions configures FitToColumns.
type FitOptions struct {
	// Overrides holds explicit per-breakpoint sizes by item id.
	Overrides OverridesMap
	// Order lists breakpoints widest first. Responsive rules are ignored when empty.
	Order []Breakpoint
}

// Order returns breakpoint names sorted by descending pixel threshold, so the
// widest viewport comes first. Equal thresholds are ordered by name.
func Order(t Thresholds) []Breakpoint {
	order := make([]Breakpoint, 0, len(t))
	for bp := range t {
		order = append(order, bp)
	}
	sort.Slice(order, func(i, j int) bool {
		if t[order[i]] != t[order[j]] {
			return t[order[i]] > t[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}

// IsBelow reports whether target is narrower than threshold, i.e. appears
// after it in the widest-first order. Unknown breakpoints are never below.
func IsBelow(target, threshold Breakpoint, order []Breakpoint) bool {
	ti, hi := -1, -1
	for i, bp := range order {
		if bp == target {
			ti = i
		}
		if bp == threshold {
			hi = i
		}
	}
	if ti < 0 || hi < 0 {
		return false
	}
	return ti > hi
}

// FitToColumns re-packs l onto a grid of cols columns for the target breakpoint.
//
// Items are processed in reading order (y, then x) so earlier widgets get the
// higher slots. Each item's size is resolved as override, else responsive
// expansion, else its own size; the width is then clamped to cols and the height
// to MaxH. The result carries freshly computed positions and sizes; l is not
// mutated. The output is deterministic for identical inputs.
func FitToColumns(l Layout, cols int, target Breakpoint, opts FitOptions) Layout {
	if cols < 1 {
		cols = 1
	}

	sorted := Copy(l)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	heights := make([]int, cols)
	placed := make(Layout, 0, len(sorted))

	for _, it := range sorted {
		w, h := resolveSize(it, cols, target, opts)

		w = clampWidth(w, cols)
		if it.MaxH != nil && *it.MaxH < h {
			h = *it.MaxH
		}

		x, y := FindSlot(heights, w)
		occupy(heights, x, y, w, h)

		it.X, it.Y, it.W, it.H = x, y, w, h
		placed = append(placed, it)
	}
	return placed
}

// resolveSize applies the override > responsive > own-size priority.
func resolveSize(it Item, cols int, target Breakpoint, opts FitOptions) (w, h int) {
	w, h = it.W, it.H

	if ov, ok := opts.Overrides[it.I][target]; ok {
		if ov.W != nil {
			w = *ov.W
		}
		if ov.H != nil {
			h = *ov.H
		}
		return w, h
	}

	r := it.Responsive
	if r == nil || len(opts.Order) == 0 {
		return w, h
	}
	if r.ExpandWidthBelow != "" && IsBelow(target, r.ExpandWidthBelow, opts.Order) {
		if it.MaxW != nil {
			w = *it.MaxW
		} else {
			w = cols
		}
	}
	if r.ExpandHeightBelow != "" && IsBelow(target, r.ExpandHeightBelow, opts.Order) {
		if it.MaxH != nil {
			h = *it.MaxH
		}
	}
	return w, h
}

// Validate checks the layout invariants for a grid of cols columns: ids are
// non-empty and unique, positions and sizes are non-negative and no item is
// wider than the grid.
func Validate(l Layout, cols int) error {
	seen := make(map[ID]struct{}, len(l))
	for _, it := range l {
		if it.I == "" {
			return errors.New(errors.ErrCodeInvalidLayout, "item at (%d,%d) has an empty id", it.X, it.Y)
		}
		if _, dup := seen[it.I]; dup {
			return errors.New(errors.ErrCodeInvalidLayout, "duplicate item id %q", it.I)
		}
		seen[it.I] = struct{}{}

		if it.X < 0 || it.Y < 0 || it.W < 0 || it.H < 0 {
			return errors.New(errors.ErrCodeInvalidLayout, "item %q has negative geometry (%d,%d %dx%d)", it.I, it.X, it.Y, it.W, it.H)
		}
		if cols > 0 && it.W > cols {
			return errors.New(errors.ErrCodeInvalidLayout, "item %q is %d columns wide on a %d-column grid", it.I, it.W, cols)
		}
	}
	return nil
}
