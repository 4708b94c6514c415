package widget

import (
	"reflect"
	"testing"

	"github.com/matzehuels/gridboard/pkg/layout"
)

func TestCustomSlot(t *testing.T) {
	w := &Widget{Layout: layout.Item{I: "t"}}
	if w.Custom() != nil {
		t.Fatal("custom slot should start empty")
	}
	if old := w.SetCustom(3); old != nil {
		t.Errorf("old = %v", old)
	}
	if old := w.SetCustom(nil); old != 3 {
		t.Errorf("old = %v, want 3", old)
	}
}

func TestRelease(t *testing.T) {
	released := 0
	w := &Widget{Teardown: func(w *Widget) {
		released++
		w.SetCustom(nil)
	}}
	w.SetCustom("ticker")
	w.Release()
	if released != 1 || w.Custom() != nil {
		t.Errorf("released=%d custom=%v", released, w.Custom())
	}
	(&Widget{}).Release() // no teardown
}

func TestTypeValid(t *testing.T) {
	for _, ty := range []Type{Pie, Bar, HorizontalBar, Donut, KPI, Line} {
		if !ty.Valid() {
			t.Errorf("%s should be valid", ty)
		}
	}
	if Type("gauge").Valid() {
		t.Error("gauge should be invalid")
	}
}

func TestDataMerge(t *testing.T) {
	d := Data{"a": 1, "b": 2}
	got := d.Merge(Data{"b": 3, "c": 4})
	if !reflect.DeepEqual(got, Data{"a": 1, "b": 3, "c": 4}) {
		t.Errorf("Merge = %v", got)
	}
	if d["b"] != 2 {
		t.Error("Merge mutated its receiver")
	}
}

func TestCollection(t *testing.T) {
	a := &Widget{Layout: layout.Item{I: "a"}}
	b := &Widget{Layout: layout.Item{I: "b"}, BreakpointOverrides: layout.Overrides{layout.XS: {W: layout.Int(6)}}}
	dup := &Widget{Layout: layout.Item{I: "a"}}

	c := NewCollection(a, b, dup, nil)
	if !reflect.DeepEqual(c.IDs(), []layout.ID{"a", "b"}) {
		t.Fatalf("IDs = %v", c.IDs())
	}
	if w, _ := c.ByID("a"); w != a {
		t.Error("duplicate should not replace the first widget")
	}

	v := c.Version()
	c.Add(a)
	if c.Version() != v {
		t.Error("adding an existing id should not notify")
	}

	ov := c.Overrides()
	if len(ov) != 1 || *ov["b"][layout.XS].W != 6 {
		t.Errorf("Overrides = %v", ov)
	}

	taken := c.Take(map[layout.ID]struct{}{"a": {}, "zz": {}})
	if len(taken) != 1 || taken[0] != a || c.Contains("a") || c.Len() != 1 {
		t.Errorf("Take = %v, remaining %v", idsOf(taken), c.IDs())
	}

	c.Replace(a)
	if !reflect.DeepEqual(c.IDs(), []layout.ID{"a"}) {
		t.Errorf("Replace = %v", c.IDs())
	}
}
