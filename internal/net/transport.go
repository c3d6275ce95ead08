package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"GridSpace/internal/session"
)

// UserHeader carries the acting user's id on every request.
const UserHeader = "X-User-ID"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	maxBodySize    = 16 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes a session Backend over HTTP and streams record changes
// over WebSocket.
type Server struct {
	backend  session.Backend
	dir      session.Directory
	log      *slog.Logger
	started  time.Time
	watchers atomic.Int64
}

func NewServer(backend session.Backend, dir session.Directory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		backend: backend,
		dir:     dir,
		log:     logger.With("component", "server"),
		started: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, writer, request)
			s.log.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
		})
	})

	r.Methods(http.MethodGet).Path("/status").HandlerFunc(s.status)
	r.Methods(http.MethodPost).Path("/sessions").HandlerFunc(s.createSession)
	r.Methods(http.MethodGet).Path("/sessions/{code}").HandlerFunc(s.getSession)
	r.Methods(http.MethodPost).Path("/sessions/{code}/requests").HandlerFunc(s.join)
	r.Methods(http.MethodPost).Path("/sessions/{code}/requests/{user}").HandlerFunc(s.resolve)
	r.Methods(http.MethodPut).Path("/sessions/{code}/participants/{user}").HandlerFunc(s.setPermission)
	r.Methods(http.MethodDelete).Path("/sessions/{code}/participants/{user}").HandlerFunc(s.leave)
	r.Methods(http.MethodPut).Path("/sessions/{code}/drawing").HandlerFunc(s.writeDrawing)
	r.Methods(http.MethodGet).Path("/sessions/{code}/watch").HandlerFunc(s.watch)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errs <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusResponse struct {
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Watchers int64  `json:"watchers"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	n, err := s.backend.Count(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Sessions: n,
		Watchers: s.watchers.Load(),
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

type resolveRequest struct {
	Approve bool `json:"approve"`
}

type permissionRequest struct {
	Permission session.Permission `json:"permission"`
}

type drawingRequest struct {
	DrawingData string `json:"drawingData"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.dir.Create(r.Context(), actor(r), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.backend.Get(r.Context(), code(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.dir.Join(r.Context(), code(r), actor(r), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.dir.Resolve(r.Context(), actor(r), code(r), mux.Vars(r)["user"], req.Approve)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) setPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.dir.SetPermission(r.Context(), actor(r), code(r), mux.Vars(r)["user"], req.Permission)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// leave removes a participant. Users may remove themselves; the host may
// remove anyone.
func (s *Server) leave(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["user"]
	if who := actor(r); who != target {
		rec, err := s.backend.Get(r.Context(), code(r))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if !rec.IsHost(who) {
			s.writeError(w, session.ErrForbidden)
			return
		}
	}
	if err := s.dir.Leave(r.Context(), code(r), target); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDrawing replaces drawingData. Only participants with draw permission
// may write.
func (s *Server) writeDrawing(w http.ResponseWriter, r *http.Request) {
	var req drawingRequest
	if !s.decode(w, r, &req) {
		return
	}
	who := actor(r)
	_, err := s.backend.Update(r.Context(), code(r), func(rec *session.Record) error {
		if rec.PermissionOf(who) != session.PermDraw {
			return session.ErrForbidden
		}
		rec.DrawingData = req.DrawingData
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// watch streams every version of a session record, starting with the
// current one, until the peer goes away.
func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	c := code(r)
	if _, err := s.backend.Get(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade", "err", err)
		return
	}
	defer conn.Close()

	s.watchers.Add(1)
	defer s.watchers.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	err = s.backend.Subscribe(ctx, c, func(rec session.Record) {
		data, err := json.Marshal(rec)
		if err != nil {
			s.log.Error("encode record", "err", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			cancel()
		}
	})
	if err != nil {
		s.log.Error("subscribe", "code", c, "err", err)
		return
	}

	go ping(ctx, conn)
	readPump(ctx, conn)
}

func ping(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns once the connection fails
// or ctx is done.
func readPump(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func actor(r *http.Request) string {
	return r.Header.Get(UserHeader)
}

func code(r *http.Request) string {
	return session.NormalizeCode(mux.Vars(r)["code"])
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("decode body: %v: %w", err, session.ErrInvalid))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write out", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
