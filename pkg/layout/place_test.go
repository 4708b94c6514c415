package layout

import "testing"

func TestFindSlot(t *testing.T) {
	tests := []struct {
		name    string
		heights []int
		width   int
		wantX   int
		wantY   int
	}{
		{"empty grid", []int{0, 0, 0, 0}, 2, 0, 0},
		{"fills gap on the right", []int{3, 3, 1, 1}, 2, 2, 1},
		{"first offset wins ties", []int{2, 2, 2, 2}, 1, 0, 2},
		{"middle gap", []int{4, 0, 0, 4}, 2, 1, 0},
		{"full width", []int{1, 5, 2, 0}, 4, 0, 5},
		{"width clamped to cols", []int{1, 2, 3}, 10, 0, 3},
		{"zero width treated as one", []int{3, 0, 1}, 0, 1, 0},
		{"no columns", nil, 2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := FindSlot(tt.heights, tt.width)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("FindSlot(%v, %d) = (%d,%d), want (%d,%d)", tt.heights, tt.width, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestFindSlotIsMinimal(t *testing.T) {
	grids := [][]int{
		{0, 1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1, 0},
		{2, 7, 1, 1, 7, 0},
		{3, 3, 3, 0, 0, 3},
	}

	for _, heights := range grids {
		cols := len(heights)
		for width := 1; width <= cols; width++ {
			x, y := FindSlot(heights, width)
			if x < 0 || x > cols-width {
				t.Fatalf("FindSlot(%v, %d) x=%d out of range", heights, width, x)
			}
			for cand := 0; cand <= cols-width; cand++ {
				top := 0
				for i := cand; i < cand+width; i++ {
					top = max(top, heights[i])
				}
				if top < y {
					t.Errorf("FindSlot(%v, %d) = y %d but offset %d reaches %d", heights, width, y, cand, top)
				}
			}
		}
	}
}

func item(w, h int) Item { return Item{W: w, H: h} }

func TestPlaceAll(t *testing.T) {
	t.Run("single widget at origin", func(t *testing.T) {
		got := PlaceAll([]Item{item(2, 3)}, 4)
		if len(got) != 1 || got[0].X != 0 || got[0].Y != 0 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("side by side", func(t *testing.T) {
		got := PlaceAll([]Item{item(2, 2), item(2, 2)}, 4)
		assertPos(t, got[0], 0, 0)
		assertPos(t, got[1], 2, 0)
	})

	t.Run("wraps when the row is full", func(t *testing.T) {
		got := PlaceAll([]Item{item(3, 1), item(3, 1)}, 4)
		assertPos(t, got[0], 0, 0)
		assertPos(t, got[1], 0, 1)
	})

	t.Run("clamps width to columns", func(t *testing.T) {
		got := PlaceAll([]Item{item(10, 1)}, 4)
		assertPos(t, got[0], 0, 0)
		if got[0].W != 4 {
			t.Errorf("W = %d, want 4", got[0].W)
		}
	})

	t.Run("fills gaps left by shorter widgets", func(t *testing.T) {
		got := PlaceAll([]Item{item(2, 3), item(2, 1), item(2, 1)}, 4)
		assertPos(t, got[0], 0, 0)
		assertPos(t, got[1], 2, 0)
		assertPos(t, got[2], 2, 1)
	})

	t.Run("stacks full width widgets", func(t *testing.T) {
		got := PlaceAll([]Item{item(4, 2), item(4, 3), item(4, 1)}, 4)
		assertPos(t, got[0], 0, 0)
		assertPos(t, got[1], 0, 2)
		assertPos(t, got[2], 0, 5)
	})

	t.Run("preserves constraints", func(t *testing.T) {
		in := Item{I: "k", W: 2, H: 2, MinW: Int(2), MaxH: Int(4), IsResizable: Bool(false)}
		got := PlaceAll([]Item{in}, 4)
		if got[0].I != "k" || *got[0].MinW != 2 || *got[0].MaxH != 4 || *got[0].IsResizable {
			t.Errorf("constraints lost: %+v", got[0])
		}
		if got[0].MinW == in.MinW {
			t.Error("PlaceAll should not share pointers with its input")
		}
	})

	t.Run("respects max size", func(t *testing.T) {
		got := PlaceAll([]Item{{W: 6, H: 9, MaxW: Int(3), MaxH: Int(4)}}, 12)
		if got[0].W != 3 || got[0].H != 4 {
			t.Errorf("size = %dx%d, want 3x4", got[0].W, got[0].H)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := PlaceAll(nil, 4); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func TestAppend(t *testing.T) {
	base := Layout{
		{I: "a", X: 0, Y: 0, W: 2, H: 3},
		{I: "b", X: 2, Y: 0, W: 2, H: 1},
	}
	got := Append(base, Item{I: "c", W: 2, H: 1}, 4)

	if len(base) != 2 {
		t.Fatal("Append mutated its input")
	}
	c, ok := got.Find("c")
	if !ok {
		t.Fatal("appended item missing")
	}
	assertPos(t, c, 2, 1)
	if got.HasOverlap() {
		t.Error("appended layout overlaps")
	}
}

func TestColumnHeights(t *testing.T) {
	l := Layout{
		{I: "a", X: 0, Y: 0, W: 2, H: 3},
		{I: "b", X: 2, Y: 0, W: 2, H: 1},
		{I: "c", X: 3, Y: 1, W: 3, H: 2}, // overflows a 4-column grid
	}
	got := ColumnHeights(l, 4)
	want := []int{3, 3, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ColumnHeights = %v, want %v", got, want)
		}
	}
}

func assertPos(t *testing.T, it Item, x, y int) {
	t.Helper()
	if it.X != x || it.Y != y {
		t.Errorf("item %q at (%d,%d), want (%d,%d)", it.I, it.X, it.Y, x, y)
	}
}
