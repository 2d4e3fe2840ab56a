package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/charsheet/internal/logging"
	"github.com/aretw0/charsheet/pkg/dice"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/sanitize"
	"github.com/aretw0/charsheet/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// Sessions is the part of session.Manager the server drives.
type Sessions interface {
	Create(ctx context.Context, document []byte) (string, error)
	Restore(ctx context.Context, id string) (string, error)
	Snapshot(ctx context.Context, key string) ([]byte, error)
	Apply(ctx context.Context, key string, changes ...domain.Change) error
	Input(ctx context.Context, key, id, text string) error
	Render(ctx context.Context, key string, w io.Writer) error
	Required(ctx context.Context, key string) ([]string, error)
	Close(ctx context.Context, key string) error
	List() []string
}

var _ Sessions = (*session.Manager)(nil)

// Server serves character sheets over HTTP.
type Server struct {
	Sessions Sessions
	Streams  *StreamManager
	Version  string

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks feed the session manager.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger. A nil logger keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates the HTTP handler for the given sessions.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sheets", func(r chi.Router) {
		r.Get("/", s.ListSheets)
		r.Post("/", s.CreateSheet)
		r.Post("/restore/{id}", s.RestoreSheet)
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", s.RenderSheet)
			r.Delete("/", s.CloseSheet)
			r.Get("/snapshot", s.GetSnapshot)
			r.Get("/required", s.GetRequired)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/changes", s.ApplyChanges)
			r.Post("/input", s.SubmitInput)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "charsheet-http",
		"version": strings.TrimSpace(s.Version),
	})
}

// ListSheets handles GET /sheets.
func (s *Server) ListSheets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sheets": s.Sessions.List()})
}

// CreateSheet handles POST /sheets. The body is the engine document.
func (s *Server) CreateSheet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateSheet: Invalid request body", "err", err)
		return
	}

	key, err := s.Sessions.Create(r.Context(), body)
	if err != nil && key == "" {
		s.fail(w, "CreateSheet", err)
		return
	}
	if err != nil {
		s.logger.Warn("CreateSheet: sheet started but not persisted", "sheet", key, "err", err)
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// RestoreSheet handles POST /sheets/restore/{id}.
func (s *Server) RestoreSheet(w http.ResponseWriter, r *http.Request) {
	key, err := s.Sessions.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil && key == "" {
		s.fail(w, "RestoreSheet", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// RenderSheet handles GET /sheets/{key} and writes the bound page.
func (s *Server) RenderSheet(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	if err := s.Sessions.Render(r.Context(), chi.URLParam(r, "key"), &b); err != nil {
		s.fail(w, "RenderSheet", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

// CloseSheet handles DELETE /sheets/{key}.
func (s *Server) CloseSheet(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.fail(w, "CloseSheet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSnapshot handles GET /sheets/{key}/snapshot.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.Sessions.Snapshot(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, "GetSnapshot", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// GetRequired handles GET /sheets/{key}/required.
func (s *Server) GetRequired(w http.ResponseWriter, r *http.Request) {
	names, err := s.Sessions.Required(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, "GetRequired", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"required": names})
}

// ApplyChanges handles POST /sheets/{key}/changes.
// The body is one change object or an array of them.
func (s *Server) ApplyChanges(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ApplyChanges: Invalid request body", "err", err)
		return
	}
	changes, err := domain.DecodeChanges(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid changes: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.Sessions.Apply(r.Context(), chi.URLParam(r, "key"), changes...); err != nil {
		s.fail(w, "ApplyChanges", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InputRequest is the body of POST /sheets/{key}/input.
type InputRequest struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// SubmitInput handles POST /sheets/{key}/input as if the user typed value
// into the element with the given id.
func (s *Server) SubmitInput(w http.ResponseWriter, r *http.Request) {
	var body InputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SubmitInput: Invalid request body", "err", err)
		return
	}
	text, err := sanitize.Input(body.Value)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("SubmitInput: Input rejected", "err", err, "size", len(body.Value))
		return
	}
	if err := s.Sessions.Input(r.Context(), chi.URLParam(r, "key"), body.ID, text); err != nil {
		s.fail(w, "SubmitInput", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSheetNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, session.ErrElementNotFound),
		errors.Is(err, session.ErrNoPage):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedChange),
		errors.Is(err, dice.ErrMalformed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
