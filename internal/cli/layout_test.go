package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/storage"
)

const designLayout = `[
  {"i": "1", "x": 0, "y": 0, "w": 6, "h": 3},
  {"i": "2", "x": 6, "y": 0, "w": 6, "h": 3},
  {"i": "3", "x": 0, "y": 3, "w": 12, "h": 8}
]`

func quietCLI() *CLI {
	return New(io.Discard, log.ErrorLevel)
}

func TestReadLayoutStdin(t *testing.T) {
	l, err := readLayout(strings.NewReader(designLayout), "-")
	if err != nil {
		t.Fatalf("readLayout() error: %v", err)
	}
	if got := l.IDs(); len(got) != 3 || got[2] != "3" {
		t.Errorf("ids = %v, want [1 2 3]", got)
	}

	if _, err := readLayout(strings.NewReader("{"), "-"); err == nil {
		t.Error("readLayout() should reject malformed JSON")
	}
	if _, err := readLayout(nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("readLayout() should fail on a missing file")
	}
}

func TestRunLayoutFit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "layout.json")
	if err := os.WriteFile(in, []byte(designLayout), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "fitted.json")

	if err := quietCLI().runLayoutFit(nil, in, grid.DefaultConfig(), "", out); err != nil {
		t.Fatalf("runLayoutFit() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var all map[layout.Breakpoint]layout.Layout
	if err := json.Unmarshal(data, &all); err != nil {
		t.Fatalf("output is not a layout map: %v", err)
	}
	if len(all) != len(layout.Breakpoints) {
		t.Fatalf("got %d breakpoints, want %d", len(all), len(layout.Breakpoints))
	}
	cols := grid.DefaultConfig().Columns
	for bp, l := range all {
		if len(l) != 3 {
			t.Errorf("%s: %d items, want 3", bp, len(l))
		}
		for _, it := range l {
			if it.X+it.W > cols[bp] {
				t.Errorf("%s: item %s spans to column %d of %d", bp, it.I, it.X+it.W, cols[bp])
			}
		}
	}
}

func TestRunLayoutFitBreakpoint(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "layout.json")
	if err := os.WriteFile(in, []byte(designLayout), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "xxs.json")

	if err := quietCLI().runLayoutFit(nil, in, grid.DefaultConfig(), "xxs", out); err != nil {
		t.Fatalf("runLayoutFit() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("output is not a layout: %v", err)
	}
	for _, it := range l {
		if it.W > 3 {
			t.Errorf("item %s is %d wide on a 3-column grid", it.I, it.W)
		}
	}
}

func TestRunLayoutFitErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name       string
		input      string
		breakpoint string
		code       errors.Code
	}{
		{"too wide", write("wide.json", `[{"i": "1", "x": 0, "y": 0, "w": 13, "h": 2}]`), "", errors.ErrCodeInvalidLayout},
		{"duplicate id", write("dup.json", `[{"i": "1", "w": 2, "h": 2}, {"i": "1", "w": 2, "h": 2}]`), "", errors.ErrCodeInvalidLayout},
		{"unknown breakpoint", write("ok.json", designLayout), "xl", errors.ErrCodeInvalidBreakpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := quietCLI().runLayoutFit(nil, tt.input, grid.DefaultConfig(), tt.breakpoint, filepath.Join(dir, "out.json"))
			if err == nil {
				t.Fatal("runLayoutFit() should fail")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error %v, want code %s", err, tt.code)
			}
		})
	}
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) []string {
	return strings.Split(ansi.ReplaceAllString(s, ""), "\n")
}

func TestGridViewRender(t *testing.T) {
	l := layout.Layout{
		{I: "a", X: 0, Y: 0, W: 2, H: 3},
		{I: "b", X: 2, Y: 0, W: 1, H: 2},
	}
	v := gridView{
		cols:   3,
		labels: map[layout.ID]string{"a": "Revenue by plan"},
		marks:  map[layout.ID]string{"a": "loading"},
	}
	lines := plain(v.render(l))

	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	for i, line := range lines {
		if n := len([]rune(line)); n != 3*cellWidth {
			t.Errorf("line %d is %d cells wide, want %d", i, n, 3*cellWidth)
		}
	}
	if !strings.HasPrefix(lines[0], "┌──────────┐┌────┐") {
		t.Errorf("top border = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "│ Revenue b│") {
		t.Errorf("label row = %q, want the label cut to the box", lines[1])
	}
	if !strings.HasPrefix(lines[2], "└──────────┘") {
		t.Errorf("bottom border = %q", lines[2])
	}
	if strings.Contains(strings.Join(lines, ""), "loading") {
		t.Error("a three-row box has no room for a mark")
	}
}

func TestGridViewEmpty(t *testing.T) {
	lines := plain(gridView{cols: 2}.render(nil))
	if len(lines) != 1 || lines[0] != strings.Repeat("·", 2*cellWidth) {
		t.Errorf("empty grid = %q", lines)
	}
}

func TestDescribeStorage(t *testing.T) {
	tests := []struct {
		cfg  storage.Config
		want string
	}{
		{storage.Config{Kind: storage.KindFile, Dir: "/data/store"}, "/data/store"},
		{storage.Config{Dir: "/data/store", Namespace: "team:"}, "/data/store (team:)"},
		{storage.Config{Kind: storage.KindRedis}, "redis://localhost:6379"},
		{storage.Config{Kind: storage.KindRedis, Redis: storage.RedisConfig{Addr: "cache:6380"}}, "redis://cache:6380"},
		{storage.Config{Kind: storage.KindMongo}, "mongodb://localhost:27017"},
		{storage.Config{Kind: storage.KindSQLite, SQLite: "/tmp/g.db"}, "sqlite:/tmp/g.db"},
		{storage.Config{Kind: storage.KindMemory}, "memory"},
	}
	for _, tt := range tests {
		if got := describeStorage(tt.cfg); got != tt.want {
			t.Errorf("describeStorage(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}
