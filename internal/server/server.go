// Package server exposes engine snapshots over HTTP and a websocket stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/lookout/internal/engine"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/logger"
)

const (
	DefaultPushInterval = time.Second
	writeTimeout        = 5 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// SnapshotSource supplies the state to serve. *engine.Engine satisfies it.
type SnapshotSource interface {
	Snapshot() *engine.Snapshot
}

// Options configures New.
type Options struct {
	Addr string
	// AllowedOrigins limits CORS and websocket origins. Empty allows any
	// origin for CORS and same-host origins for websockets.
	AllowedOrigins []string
	PushInterval   time.Duration
	Logger         logger.Logger
}

// Server is the read-only status API.
type Server struct {
	src      SnapshotSource
	opts     Options
	log      logger.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server over src.
func New(src SnapshotSource, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = DefaultPushInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	s := &Server{src: src, opts: opts, log: opts.Logger}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/targets/*", s.handleTarget)
		r.Get("/ws", s.handleWS)
	})
	return r
}

// ListenAndServe serves on opts.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServer,
			fmt.Sprintf("Can't listen on %s", s.opts.Addr),
			"Pick a free address with server.addr in your config")
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("status API listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		return errors.WrapWithCode(err, errors.ErrServer, "Status API stopped", "")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServer, "Status API shutdown failed", "")
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.src.Snapshot())
}

// handleTarget serves one target. IDs contain slashes, so the whole
// remaining path is the ID; '#' must be sent as %23.
func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid target id"})
		return
	}
	tv, ok := s.src.Snapshot().Target(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "target not found"})
		return
	}
	writeJSON(w, http.StatusOK, tv)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed: %v", err)
		return
	}
	s.serveConnection(r.Context(), conn)
}

// serveConnection pushes a snapshot straight away and then every push
// interval whenever it changed. A reader goroutine detects the close.
func (s *Server) serveConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	last := s.src.Snapshot()
	if err := writePayload(conn, last); err != nil {
		return
	}

	ticker := time.NewTicker(s.opts.PushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			snap := s.src.Snapshot()
			if snap == last {
				continue
			}
			last = snap
			if err := writePayload(conn, snap); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func writePayload(conn *websocket.Conn, payload *engine.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(payload)
}

// checkOrigin accepts requests without an Origin, configured origins and
// origins naming the same host as the request.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(r.Host))
	return host == strings.ToLower(strings.TrimSpace(u.Host))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
