// Package server exposes dashboards over a JSON HTTP API.
//
// Every client gets its own dashboard, keyed by the X-Dashboard-Session
// header. A request without one starts a new session and receives its id in
// the response header. Sessions share one storage backend, each scoped to its
// own key prefix, so a client that comes back with the same id after a
// restart finds its arrangement and theme again.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/gridboard/pkg/dashboard"
	"github.com/matzehuels/gridboard/pkg/errors"
	"github.com/matzehuels/gridboard/pkg/grid"
	"github.com/matzehuels/gridboard/pkg/storage"
	"github.com/matzehuels/gridboard/pkg/widget"
)

// SessionHeader carries the client's session id.
const SessionHeader = "X-Dashboard-Session"

// DefaultMaxSessions bounds the live dashboards kept in memory.
const DefaultMaxSessions = 256

// WidgetSet builds a fresh set of widgets for a new dashboard laid out on
// cols columns.
type WidgetSet func(cols int) (dashboard, palette []*widget.Widget)

// Options configures a Server.
type Options struct {
	Grid    grid.Config
	Widgets WidgetSet
	// Backend is shared by all sessions. Nil means an in-memory store.
	Backend     storage.Backend
	Concurrency int
	// MaxSessions bounds live dashboards; the least recently used is closed
	// when it is exceeded. Zero means DefaultMaxSessions.
	MaxSessions int
	Logger      *log.Logger
}

type session struct {
	id       string
	dash     *dashboard.Dashboard
	ticks    *grid.TickQueue
	lastSeen time.Time
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Widgets == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a widget set")
	}
	if opts.Grid.Columns == nil && opts.Grid.Thresholds == nil {
		opts.Grid = grid.DefaultConfig()
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	if opts.Backend == nil {
		opts.Backend = storage.NewMemoryBackend()
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*session),
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/layouts", s.handleLayouts)
		r.Get("/layouts/{breakpoint}", s.handleLayout)
		r.Put("/layout", s.handleApplyLayout)
		r.Post("/breakpoint", s.handleBreakpoint)

		r.Route("/widgets/{id}", func(r chi.Router) {
			r.Post("/", s.handleAddWidget)
			r.Delete("/", s.handleRemoveWidget)
			r.Post("/move", s.handleMoveWidget)
			r.Get("/runtime", s.handleRuntime)
			r.Patch("/params", s.handleParams)
		})

		r.Post("/refresh", s.handleRefresh)
		r.Post("/reset", s.handleReset)
		r.Post("/keys", s.handleKey)
		r.Post("/simulate/{kind}", s.handleSimulate)

		r.Get("/theme", s.handleGetTheme)
		r.Put("/theme", s.handlePutTheme)
		r.Put("/period", s.handlePeriod)
	})
	return r
}

// logRequests logs one line per request through the server's logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type ctxKey int

const sessionKey ctxKey = 0

// withSession resolves or creates the request's session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "session id must be a UUID"))
			return
		}

		sess, err := s.session(r.Context(), id)
		if err != nil {
			s.logger.Error("could not open session", "session", id, "err", err)
			writeError(w, err)
			return
		}
		w.Header().Set(SessionHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *session {
	return r.Context().Value(sessionKey).(*session)
}

// session returns the live session id, creating its dashboard on first use.
// The dashboard is built outside the lock since it loads every widget.
func (s *Server) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = time.Now()
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	cols := s.opts.Grid.Columns[s.opts.Grid.DesignBreakpoint]
	dash, palette := s.opts.Widgets(cols)
	ticks := &grid.TickQueue{}
	d, err := dashboard.New(ctx, dashboard.Options{
		Grid:        s.opts.Grid,
		Widgets:     dash,
		Palette:     palette,
		Backend:     storage.Scoped(s.opts.Backend, "session:"+id+":"),
		Scheduler:   ticks,
		Concurrency: s.opts.Concurrency,
		Logger:      s.logger.With("session", id[:8]),
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		// Lost a race with a concurrent first request.
		d.Close()
		sess.lastSeen = time.Now()
		return sess, nil
	}
	if len(s.sessions) >= s.opts.MaxSessions {
		s.evictLocked()
	}
	sess := &session{id: id, dash: d, ticks: ticks, lastSeen: time.Now()}
	s.sessions[id] = sess
	s.logger.Info("session started", "session", id, "live", len(s.sessions))
	return sess, nil
}

func (s *Server) evictLocked() {
	var oldest *session
	for _, sess := range s.sessions {
		if oldest == nil || sess.lastSeen.Before(oldest.lastSeen) {
			oldest = sess
		}
	}
	if oldest == nil {
		return
	}
	delete(s.sessions, oldest.id)
	oldest.dash.Close()
	s.logger.Debug("session evicted", "session", oldest.id)
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close releases every session's widgets. The shared backend is left open.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.dash.Close()
		delete(s.sessions, id)
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := errors.ValidateAddr(addr); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}
