package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gridboard/pkg/buildinfo"
	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/layout"
	"github.com/matzehuels/gridboard/pkg/period"
	"github.com/matzehuels/gridboard/pkg/theme"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// writeError maps error codes to statuses: validation 400, not found 404,
// anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		status = http.StatusNotImplemented
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func widgetID(r *http.Request) (layout.ID, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateWidgetID(id); err != nil {
		return "", err
	}
	return layout.ID(id), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.Sessions(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).dash.Snapshot())
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).dash.Layouts().Layouts())
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	bp, err := layout.ParseBreakpoint(chi.URLParam(r, "breakpoint"))
	if err != nil {
		writeError(w, err)
		return
	}
	l, ok := sessionFrom(r).dash.Layouts().Layout(bp)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no layout for breakpoint %s yet", bp))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleApplyLayout(w http.ResponseWriter, r *http.Request) {
	var next layout.Layout
	if err := decode(r, &next); err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	if err := d.ApplyLayout(r.Context(), next); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

type breakpointRequest struct {
	Breakpoint string `json:"breakpoint"`
}

// handleBreakpoint reports a breakpoint change and runs the deferred swap
// before answering, standing in for the renderer's next tick.
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request) {
	var req breakpointRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	bp, err := layout.ParseBreakpoint(req.Breakpoint)
	if err != nil {
		writeError(w, err)
		return
	}
	sess := sessionFrom(r)
	if err := sess.dash.HandleBreakpointChange(r.Context(), bp); err != nil {
		writeError(w, err)
		return
	}
	sess.ticks.Flush()
	writeJSON(w, http.StatusOK, sess.dash.Snapshot())
}

func (s *Server) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	id, err := widgetID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	if err := d.AddFromPalette(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d.Snapshot())
}

func (s *Server) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	id, err := widgetID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	if err := d.RemoveWidget(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

type moveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s *Server) handleMoveWidget(w http.ResponseWriter, r *http.Request) {
	id, err := widgetID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	if err := d.MoveItem(r.Context(), id, req.X, req.Y); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Live().Layout())
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	id, err := widgetID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	widgets := sessionFrom(r).dash.Widgets()
	if !widgets.Dashboard().Contains(id) {
		writeError(w, errors.New(errors.ErrCodeWidgetNotFound, "widget %q is not on the dashboard", id))
		return
	}
	writeJSON(w, http.StatusOK, widgets.Runtime(id))
}

// handleParams merges session params into a widget and reloads it so the
// initializer sees them.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	id, err := widgetID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var kv map[string]any
	if err := decode(r, &kv); err != nil {
		writeError(w, err)
		return
	}
	widgets := sessionFrom(r).dash.Widgets()
	wd, ok := widgets.ByID(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeWidgetNotFound, "widget %q is not on the dashboard", id))
		return
	}
	widgets.SetParam(id, kv)
	_ = widgets.Initialize(r.Context(), wd)
	writeJSON(w, http.StatusOK, map[string]any{
		"params":  widgets.Params(id),
		"runtime": widgets.Runtime(id),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	failed := sessionFrom(r).dash.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"failed": failed})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.dash.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	sess.ticks.Flush()
	writeJSON(w, http.StatusOK, sess.dash.Snapshot())
}

type keyRequest struct {
	Key    string `json:"key"`
	Typing bool   `json:"typing"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	handled := d.HandleKey(r.Context(), req.Key, req.Typing)
	writeJSON(w, http.StatusOK, map[string]bool{"handled": handled, "editMode": d.EditMode()})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	d := sessionFrom(r).dash
	var (
		id layout.ID
		ok bool
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case "error":
		id, ok = d.SimulateError()
	case "loading":
		id, ok = d.SimulateLoading()
	default:
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown simulation %q", kind))
		return
	}
	if !ok {
		writeError(w, errors.New(errors.ErrCodeWidgetNotFound, "no widget available to simulate on"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]layout.ID{"widget": id})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	cfg, err := sessionFrom(r).dash.Theme(r.Context())
	if err != nil {
		s.logger.Warn("theme load failed, serving defaults", "err", err)
	}
	writeJSON(w, http.StatusOK, themeBody(cfg))
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	cfg := theme.Default()
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	if err := sessionFrom(r).dash.SetTheme(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody(cfg))
}

type themeResponse struct {
	theme.Config
	Charts theme.ChartPalette `json:"charts"`
}

func themeBody(cfg theme.Config) themeResponse {
	return themeResponse{Config: cfg, Charts: cfg.Charts()}
}

// periodRequest selects a preset or an explicit range.
type periodRequest struct {
	Preset  period.Code `json:"preset,omitempty"`
	Compare bool        `json:"compare,omitempty"`
	From    *time.Time  `json:"dateFrom,omitempty"`
	To      *time.Time  `json:"dateTo,omitempty"`
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d := sessionFrom(r).dash
	var err error
	switch {
	case req.Preset != "":
		err = d.SetPreset(r.Context(), req.Preset, req.Compare)
	case req.From != nil && req.To != nil:
		p := period.Period{From: *req.From, To: *req.To}
		if req.Compare {
			p = p.WithPreviousComparison()
		}
		err = d.SetPeriod(r.Context(), p)
	default:
		err = errors.New(errors.ErrCodeInvalidPeriod, "give a preset or both dateFrom and dateTo")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Period())
}
