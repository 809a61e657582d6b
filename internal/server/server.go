// Package server exposes the displayed posts and scheduler controls over
// HTTP. It is also a display surface: every push replaces the state it
// serves.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pauljones0/reddit-rotator/internal/models"
	"github.com/pauljones0/reddit-rotator/internal/processor"
	"github.com/pauljones0/reddit-rotator/internal/util"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Controller is the subset of the scheduler the HTTP API drives.
type Controller interface {
	Refresh(ctx context.Context) error
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
	Status(ctx context.Context) (processor.Status, error)
}

// Server keeps the most recent display push and serves it.
type Server struct {
	templates      *template.Template
	refreshSeconds int

	mu   sync.RWMutex
	last *models.DisplayPush
}

// New parses the page templates. refreshEvery sets how often the HTML page
// reloads itself.
func New(refreshEvery time.Duration) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatScore": util.FormatScore,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	seconds := int(refreshEvery / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return &Server{templates: tmpl, refreshSeconds: seconds}, nil
}

// Push records p as the state to serve.
func (s *Server) Push(_ context.Context, p models.DisplayPush) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &p
	return nil
}

// Last returns the most recent push, if any.
func (s *Server) Last() (models.DisplayPush, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return models.DisplayPush{}, false
	}
	return *s.last, true
}

// Handler returns the router. ctrl backs the control endpoints.
func (s *Server) Handler(ctrl Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handlers{server: s, ctrl: ctrl}
	r.Get("/", h.handleHome)
	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleState)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/suspend", h.handleSuspend)
		r.Post("/resume", h.handleResume)
	})
	return r
}

type handlers struct {
	server *Server
	ctrl   Controller
}

type pageData struct {
	Header         string
	Posts          models.PostSet
	Position       int
	SetCount       int
	HasValidData   bool
	ImageMode      bool
	Toggles        models.Toggles
	RefreshSeconds int
}

func (h *handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	data := pageData{RefreshSeconds: h.server.refreshSeconds}
	if p, ok := h.server.Last(); ok {
		data.Header = p.Header
		data.Posts = p.Visible()
		data.Position = p.ActiveIndex + 1
		data.SetCount = len(p.Sets)
		data.HasValidData = p.HasValidData
		data.ImageMode = p.DisplayType == models.DisplayImage
		data.Toggles = p.Toggles
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.server.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("Failed to render page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type stateResponse struct {
	Status  *processor.Status   `json:"status,omitempty"`
	Display *models.DisplayPush `json:"display,omitempty"`
}

func (h *handlers) handleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	if p, ok := h.server.Last(); ok {
		resp.Display = &p
	}
	if h.ctrl != nil {
		st, err := h.ctrl.Status(r.Context())
		if err != nil {
			h.controlError(w, err)
			return
		}
		resp.Status = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.ctrlOrNil().Refresh, "refresh started")
}

func (h *handlers) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.ctrlOrNil().Suspend, "suspended")
}

func (h *handlers) handleResume(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.ctrlOrNil().Resume, "resumed")
}

func (h *handlers) ctrlOrNil() Controller {
	if h.ctrl == nil {
		return noController{}
	}
	return h.ctrl
}

func (h *handlers) control(w http.ResponseWriter, r *http.Request, fn func(context.Context) error, msg string) {
	if err := fn(r.Context()); err != nil {
		h.controlError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": msg})
}

func (h *handlers) controlError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, processor.ErrSuspended):
		status = http.StatusConflict
	case errors.Is(err, processor.ErrStopped), errors.Is(err, errNoController):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errNoController = errors.New("scheduler not attached")

type noController struct{}

func (noController) Refresh(context.Context) error { return errNoController }
func (noController) Suspend(context.Context) error { return errNoController }
func (noController) Resume(context.Context) error  { return errNoController }
func (noController) Status(context.Context) (processor.Status, error) {
	return processor.Status{}, errNoController
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
