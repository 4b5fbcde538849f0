// Package server exposes editing sessions over a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MeKo-Tech/photofilter/internal/editor"
	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/preset"
	"github.com/MeKo-Tech/photofilter/internal/session"
)

// Config configures the API server.
type Config struct {
	Presets        preset.Table
	Export         imageio.Options
	MaxSessions    int
	MaxUploadBytes int64
	SessionTTL     time.Duration
	PreviewSize    int
	// MaxConcurrentRenders bounds full-size renders across all sessions.
	MaxConcurrentRenders int
}

// Server hosts editing sessions.
type Server struct {
	store  *Store
	logger *slog.Logger
	sem    chan struct{}
	cfg    Config

	activeRenders atomic.Int32
	totalRenders  atomic.Int64
	totalExports  atomic.Int64
	started       time.Time
}

// Status is the JSON body of /api/status.
type Status struct {
	Sessions      int    `json:"sessions"`
	MaxSessions   int    `json:"max_sessions"`
	TotalCreated  int64  `json:"total_created"`
	ActiveRenders int    `json:"active_renders"`
	TotalRenders  int64  `json:"total_renders"`
	TotalExports  int64  `json:"total_exports"`
	MaxConcurrent int    `json:"max_concurrent"`
	MaxUpload     string `json:"max_upload"`
	Uptime        string `json:"uptime"`
}

// SessionResponse describes a session and its current editor state.
type SessionResponse struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	State      editor.State `json:"state"`
	CanUndo    bool         `json:"canUndo"`
	CanRedo    bool         `json:"canRedo"`
	HistoryLen int          `json:"historyLen"`
	// Changed is false for operations that were a no-op (undo/redo at a
	// history boundary).
	Changed bool `json:"changed"`
}

// FilterRequest is the body of POST /api/sessions/{id}/filters.
type FilterRequest struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Commit bool    `json:"commit"`
}

// PresetInfo is one entry of GET /api/presets.
type PresetInfo struct {
	Name   string             `json:"name"`
	Values map[string]float64 `json:"values"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server, applying defaults for unset config fields.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.Presets == nil {
		cfg.Presets = preset.Default()
	}
	if cfg.Export.Format == "" {
		cfg.Export = imageio.DefaultOptions()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 64
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = 1024
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}

	return &Server{
		cfg:     cfg,
		store:   NewStore(cfg.MaxSessions),
		logger:  logger,
		sem:     make(chan struct{}, cfg.MaxConcurrentRenders),
		started: time.Now(),
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Store returns the session store.
func (s *Server) Store() *Store { return s.store }

// Run sweeps idle sessions every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	if s.cfg.SessionTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Sweep(s.cfg.SessionTTL); n > 0 {
				s.log().Info("expired idle sessions", "count", n, "remaining", s.store.Len())
			}
		}
	}
}

// Status returns current server counters.
func (s *Server) Status() Status {
	return Status{
		Sessions:      s.store.Len(),
		MaxSessions:   s.store.Max(),
		TotalCreated:  s.store.Created(),
		ActiveRenders: int(s.activeRenders.Load()),
		TotalRenders:  s.totalRenders.Load(),
		TotalExports:  s.totalExports.Load(),
		MaxConcurrent: s.cfg.MaxConcurrentRenders,
		MaxUpload:     humanize.IBytes(uint64(s.cfg.MaxUploadBytes)),
		Uptime:        time.Since(s.started).Round(time.Second).String(),
	}
}

// Handler returns the HTTP handler for the whole API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		s.writeJSON(w, http.StatusOK, s.Status())
	})
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("GET /api/filters", s.handleFilters)

	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/filters", s.handleFilter)
	mux.HandleFunc("POST /api/sessions/{id}/actions/{action}", s.handleAction)
	mux.HandleFunc("POST /api/sessions/{id}/presets/{name}", s.handlePreset)
	mux.HandleFunc("GET /api/sessions/{id}/preview.png", s.handlePreview)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)

	return withCORS(mux)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("image exceeds %s", humanize.IBytes(uint64(maxErr.Limit))))
			return
		}
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	img, format, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "image." + format
	}

	sess := session.New(session.Config{
		Presets: s.cfg.Presets,
		Export:  s.cfg.Export,
		Logger:  s.logger,
	})
	if err := sess.Load(img, name); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := describe("", sess, true)
	id, err := s.store.Add(sess)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	resp.ID = id

	b := img.Bounds()
	s.log().Info("session created", "id", id, "name", name, "format", format, "width", b.Dx(), "height", b.Dy())
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var resp SessionResponse
	if !s.store.With(id, func(sess *session.Session) {
		resp = describe(id, sess, false)
	}) {
		s.notFound(w, id)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Delete(id) {
		s.notFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	f, err := editor.ParseFilter(req.Name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	id := r.PathValue("id")
	var (
		resp   SessionResponse
		setErr error
	)
	if !s.store.With(id, func(sess *session.Session) {
		if req.Commit {
			setErr = sess.AdjustFilter(f, req.Value)
		} else {
			setErr = sess.SetFilter(f, req.Value)
		}
		resp = describe(id, sess, setErr == nil)
	}) {
		s.notFound(w, id)
		return
	}
	if setErr != nil {
		s.writeError(w, http.StatusBadRequest, setErr)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// actions maps URL action names to session operations. The result reports
// whether the state changed.
var actions = map[string]func(*session.Session) bool{
	"undo":            (*session.Session).Undo,
	"redo":            (*session.Session).Redo,
	"reset":           func(s *session.Session) bool { s.Reset(); return true },
	"rotate-left":     func(s *session.Session) bool { s.RotateLeft(); return true },
	"rotate-right":    func(s *session.Session) bool { s.RotateRight(); return true },
	"flip-horizontal": func(s *session.Session) bool { s.FlipHorizontal(); return true },
	"flip-vertical":   func(s *session.Session) bool { s.FlipVertical(); return true },
	"commit":          (*session.Session).Commit,
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("action")
	op, ok := actions[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", name))
		return
	}

	id := r.PathValue("id")
	var resp SessionResponse
	if !s.store.With(id, func(sess *session.Session) {
		changed := op(sess)
		resp = describe(id, sess, changed)
	}) {
		s.notFound(w, id)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	id := r.PathValue("id")

	var (
		resp    SessionResponse
		applied bool
	)
	if !s.store.With(id, func(sess *session.Session) {
		applied = sess.ApplyPreset(name)
		resp = describe(id, sess, applied)
	}) {
		s.notFound(w, id)
		return
	}
	if !applied {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", preset.ErrUnknownPreset, name))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	size := s.cfg.PreviewSize
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max %q", v))
			return
		}
		size = min(n, s.cfg.PreviewSize)
	}

	id := r.PathValue("id")
	var (
		img       *image.NRGBA
		renderErr error
	)
	if !s.store.With(id, func(sess *session.Session) {
		renderErr = s.rendering(r.Context(), func() error {
			var err error
			img, err = sess.Preview(size)
			return err
		})
	}) {
		s.notFound(w, id)
		return
	}
	if renderErr != nil {
		s.writeRenderError(w, renderErr)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.log().Error("failed to encode preview", "id", id, "error", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	opts := s.cfg.Export
	if v := r.URL.Query().Get("format"); v != "" {
		format, err := imageio.ParseFormat(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		opts.Format = format
	}

	var (
		buf       bytes.Buffer
		exportErr error
	)
	if !s.store.With(id, func(sess *session.Session) {
		exportErr = s.rendering(r.Context(), func() error {
			return sess.ExportWith(&buf, opts)
		})
	}) {
		s.notFound(w, id)
		return
	}
	if exportErr != nil {
		s.writeRenderError(w, exportErr)
		return
	}
	s.totalExports.Add(1)

	filename := strings.TrimSuffix(imageio.DefaultExportName, ".jpg") + opts.Format.Extension()
	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Error("failed to write export", "id", id, "error", err)
		return
	}
	s.log().Info("image exported", "id", id, "format", opts.Format, "size", humanize.Bytes(uint64(buf.Len())))
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	names := s.cfg.Presets.Names()
	out := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		p, _ := s.cfg.Presets.Get(name)
		values := make(map[string]float64, len(p.Values))
		for f, v := range p.Values {
			values[string(f)] = v
		}
		out = append(out, PresetInfo{Name: name, Values: values})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type filterInfo struct {
	Name string `json:"name"`
	editor.FilterMeta
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	out := make([]filterInfo, 0, len(editor.Filters))
	for _, f := range editor.Filters {
		out = append(out, filterInfo{Name: string(f), FilterMeta: editor.Meta[f]})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// rendering runs fn while holding a render slot.
func (s *Server) rendering(ctx context.Context, fn func() error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	s.activeRenders.Add(1)
	defer s.activeRenders.Add(-1)

	err := fn()
	if err == nil {
		s.totalRenders.Add(1)
	}
	return err
}

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoImage):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.log().Error("render failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) notFound(w http.ResponseWriter, id string) {
	s.writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", id))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func describe(id string, sess *session.Session, changed bool) SessionResponse {
	resp := SessionResponse{
		ID:         id,
		Name:       sess.Name(),
		State:      sess.State(),
		CanUndo:    sess.CanUndo(),
		CanRedo:    sess.CanRedo(),
		HistoryLen: sess.HistoryLen(),
		Changed:    changed,
	}
	if src := sess.Source(); src != nil {
		b := src.Bounds()
		resp.Width, resp.Height = b.Dx(), b.Dy()
	}
	return resp
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
