package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridboard/pkg/buildinfo"
	"github.com/matzehuels/gridboard/pkg/catalog"
	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/widget"
)

func simpleSet(int) (dash, palette []*widget.Widget) {
	mk := func(id layout.ID, w, h int) *widget.Widget {
		return &widget.Widget{
			Layout: layout.Item{I: id, W: w, H: h},
			Type:   widget.Bar,
			Initialize: func(_ context.Context, in widget.InitParams) (widget.State, error) {
				return widget.State{Data: widget.Data{"params": in.Params}}, nil
			},
		}
	}
	return []*widget.Widget{mk("1", 6, 2), mk("2", 6, 2)}, []*widget.Widget{mk("100", 4, 2)}
}

func newTestServer(t *testing.T, backend storage.Backend) *Server {
	t.Helper()
	s, err := New(Options{
		Widgets: simpleSet,
		Backend: backend,
		Logger:  log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type client struct {
	t       *testing.T
	h       http.Handler
	session string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if c.session != "" {
		req.Header.Set(SessionHeader, c.session)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if id := rec.Header().Get(SessionHeader); id != "" {
		c.session = id
	}
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}
	rec := c.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if c.session != "" {
		t.Error("health check opened a session")
	}
	body := decodeBody[struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}](t, rec)
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health = %+v", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	c := &client{t: t, h: s}

	rec := c.do(http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if c.session == "" {
		t.Fatal("no session id returned")
	}
	v := decodeBody[dashboard.View](t, rec)
	if len(v.Widgets) != 2 || len(v.Palette) != 1 {
		t.Errorf("widgets=%d palette=%d", len(v.Widgets), len(v.Palette))
	}

	c.do(http.MethodGet, "/api/dashboard", nil)
	if s.Sessions() != 1 {
		t.Errorf("sessions = %d, want 1", s.Sessions())
	}

	bad := &client{t: t, h: s, session: "not-a-uuid"}
	if rec := bad.do(http.MethodGet, "/api/dashboard", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad session status = %d", rec.Code)
	}
}

func TestWidgetMembership(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}

	rec := c.do(http.MethodPost, "/api/widgets/100", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body)
	}
	v := decodeBody[dashboard.View](t, rec)
	if !v.Layout.Contains("100") || len(v.Palette) != 0 {
		t.Errorf("after add: layout=%v palette=%d", v.Layout.IDs(), len(v.Palette))
	}

	if rec := c.do(http.MethodGet, "/api/widgets/100/runtime", nil); rec.Code != http.StatusOK {
		t.Errorf("runtime status = %d", rec.Code)
	}

	rec = c.do(http.MethodDelete, "/api/widgets/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if v := decodeBody[dashboard.View](t, rec); v.Layout.Contains("1") {
		t.Error("deleted widget still on the grid")
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodDelete, "/api/widgets/1", http.StatusNotFound},
		{http.MethodPost, "/api/widgets/999", http.StatusNotFound},
		{http.MethodGet, "/api/widgets/1/runtime", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := c.do(tt.method, tt.path, nil)
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if body := decodeBody[errorBody](t, rec); body.Code == "" || body.Message == "" {
			t.Errorf("%s %s error body = %+v", tt.method, tt.path, body)
		}
	}
}

func TestApplyLayoutAndBreakpoint(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}

	rec := c.do(http.MethodPost, "/api/breakpoint", map[string]string{"breakpoint": "lg"})
	if rec.Code != http.StatusOK {
		t.Fatalf("breakpoint status = %d: %s", rec.Code, rec.Body)
	}

	next := layout.Layout{
		{I: "2", X: 0, Y: 0, W: 6, H: 2},
		{I: "1", X: 6, Y: 0, W: 6, H: 2},
	}
	if rec := c.do(http.MethodPut, "/api/layout", next); rec.Code != http.StatusOK {
		t.Fatalf("layout status = %d: %s", rec.Code, rec.Body)
	}

	rec = c.do(http.MethodGet, "/api/layouts/lg", nil)
	l := decodeBody[layout.Layout](t, rec)
	if it, _ := l.Find("1"); it.X != 6 {
		t.Errorf("lg layout item 1 at x=%d, want 6", it.X)
	}

	rec = c.do(http.MethodPost, "/api/breakpoint", map[string]string{"breakpoint": "xxs"})
	v := decodeBody[dashboard.View](t, rec)
	if v.ActiveBreakpoint != layout.XXS || v.Cols != 3 || !v.IsMobile {
		t.Errorf("after xxs: %+v", v)
	}
	for _, it := range v.Layout {
		if it.W > 3 {
			t.Errorf("item %s is %d wide on 3 columns", it.I, it.W)
		}
	}

	tests := []struct {
		method, path string
		body         any
		want         int
	}{
		{http.MethodPost, "/api/breakpoint", map[string]string{"breakpoint": "xl"}, http.StatusBadRequest},
		{http.MethodPut, "/api/layout", layout.Layout{{I: "1", W: 99, H: 1}}, http.StatusBadRequest},
		{http.MethodPut, "/api/layout", map[string]int{"nope": 1}, http.StatusBadRequest},
		{http.MethodGet, "/api/layouts/huge", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := c.do(tt.method, tt.path, tt.body); rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestParamsReloadWidget(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}
	rec := c.do(http.MethodPatch, "/api/widgets/1/params", map[string]any{"region": "emea"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	body := decodeBody[struct {
		Params  map[string]any `json:"params"`
		Runtime widget.Runtime `json:"runtime"`
	}](t, rec)
	if body.Params["region"] != "emea" {
		t.Errorf("params = %v", body.Params)
	}
	got, _ := body.Runtime.Data["params"].(map[string]any)
	if got["region"] != "emea" {
		t.Errorf("initializer saw params %v", body.Runtime.Data["params"])
	}
}

func TestThemeAndPeriod(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}

	rec := c.do(http.MethodGet, "/api/theme", nil)
	body := decodeBody[themeResponse](t, rec)
	if body.Primary != "azia" || len(body.Charts.Main) == 0 {
		t.Errorf("default theme = %+v", body)
	}
	if rec := c.do(http.MethodPut, "/api/theme", map[string]any{"primary": "rose", "surface": "stone", "isDark": false}); rec.Code != http.StatusOK {
		t.Errorf("put theme status = %d: %s", rec.Code, rec.Body)
	}
	if rec := c.do(http.MethodPut, "/api/theme", map[string]any{"primary": "plaid"}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid theme status = %d", rec.Code)
	}
	if body := decodeBody[themeResponse](t, c.do(http.MethodGet, "/api/theme", nil)); body.Primary != "rose" {
		t.Errorf("stored primary = %q", body.Primary)
	}

	if rec := c.do(http.MethodPut, "/api/period", map[string]any{"preset": "thisMonth", "compare": true}); rec.Code != http.StatusOK {
		t.Errorf("preset status = %d: %s", rec.Code, rec.Body)
	}
	from, to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	if rec := c.do(http.MethodPut, "/api/period", map[string]any{"dateFrom": from, "dateTo": to}); rec.Code != http.StatusOK {
		t.Errorf("range status = %d: %s", rec.Code, rec.Body)
	}
	if rec := c.do(http.MethodPut, "/api/period", map[string]any{"dateFrom": to, "dateTo": from}); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d", rec.Code)
	}
	if rec := c.do(http.MethodPut, "/api/period", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty period status = %d", rec.Code)
	}
}

func TestKeysSimulateRefreshReset(t *testing.T) {
	c := &client{t: t, h: newTestServer(t, nil)}

	rec := c.do(http.MethodPost, "/api/keys", map[string]any{"key": "e"})
	if got := decodeBody[map[string]bool](t, rec); !got["handled"] || !got["editMode"] {
		t.Errorf("keys = %v", got)
	}
	if rec := c.do(http.MethodPost, "/api/simulate/error", nil); rec.Code != http.StatusOK {
		t.Errorf("simulate error status = %d", rec.Code)
	}
	if rec := c.do(http.MethodPost, "/api/simulate/meltdown", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown simulation status = %d", rec.Code)
	}
	if got := decodeBody[map[string]int](t, c.do(http.MethodPost, "/api/refresh", nil)); got["failed"] != 0 {
		t.Errorf("refresh = %v", got)
	}

	c.do(http.MethodDelete, "/api/widgets/1", nil)
	rec = c.do(http.MethodPost, "/api/reset", nil)
	if v := decodeBody[dashboard.View](t, rec); len(v.Widgets) != 2 || !v.Layout.Contains("1") {
		t.Errorf("after reset: %+v", v)
	}
}

func TestSessionsPersistAcrossServers(t *testing.T) {
	backend := storage.NewMemoryBackend()
	first := &client{t: t, h: newTestServer(t, backend)}
	first.do(http.MethodPost, "/api/breakpoint", map[string]string{"breakpoint": "lg"})
	first.do(http.MethodDelete, "/api/widgets/2", nil)

	second := &client{t: t, h: newTestServer(t, backend), session: first.session}
	v := decodeBody[dashboard.View](t, second.do(http.MethodGet, "/api/dashboard", nil))
	if v.Layout.Contains("2") || len(v.Palette) != 2 {
		t.Errorf("restored layout = %v, palette = %d", v.Layout.IDs(), len(v.Palette))
	}

	other := &client{t: t, h: newTestServer(t, backend)}
	v = decodeBody[dashboard.View](t, other.do(http.MethodGet, "/api/dashboard", nil))
	if !v.Layout.Contains("2") {
		t.Error("a new session saw another session's layout")
	}
}

func TestSessionEviction(t *testing.T) {
	s, err := New(Options{Widgets: simpleSet, MaxSessions: 2, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	for range 3 {
		(&client{t: t, h: s}).do(http.MethodGet, "/api/dashboard", nil)
	}
	if s.Sessions() != 2 {
		t.Errorf("sessions = %d, want 2", s.Sessions())
	}
}

func TestCatalogWidgetSet(t *testing.T) {
	s, err := New(Options{
		Widgets: func(cols int) ([]*widget.Widget, []*widget.Widget) {
			return catalog.Dashboard(cols, catalog.Options{}), catalog.Palette(cols, catalog.Options{TickInterval: time.Hour})
		},
		Logger: log.New(io.Discard),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	c := &client{t: t, h: s}
	v := decodeBody[dashboard.View](t, c.do(http.MethodGet, "/api/dashboard", nil))
	if len(v.Widgets) != 13 {
		t.Errorf("widgets = %d", len(v.Widgets))
	}
	if rec := c.do(http.MethodPost, "/api/widgets/103", nil); rec.Code != http.StatusCreated {
		t.Errorf("add ticker status = %d: %s", rec.Code, rec.Body)
	}
}

func TestNewRequiresWidgets(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without a widget set succeeded")
	}
}
