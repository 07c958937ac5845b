package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/model"
	"github.com/esantoro/gaphor/pkg/script"
	"github.com/esantoro/gaphor/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes open documents over HTTP.
type Server struct {
	Documents *session.Manager
	Streams   *StreamManager

	runner  *script.Runner
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically one whose Hooks were attached to
// documents when they were opened.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithMetricsHandler mounts h under /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the document registry.
func NewHandler(docs *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Documents: docs,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	s.runner = script.NewRunner(script.WithLogger(s.logger))

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetStatus)
			r.Delete("/", s.CloseDocument)
			r.Get("/model", s.GetModel)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/commands", s.RunCommands)
			r.Post("/undo", s.command(func(_ context.Context, app *gaphor.Application) error {
				app.Undo()
				return nil
			}))
			r.Post("/redo", s.command(func(_ context.Context, app *gaphor.Application) error {
				app.Redo()
				return nil
			}))
			r.Post("/begin", s.command(func(_ context.Context, app *gaphor.Application) error {
				app.Manager.BeginTransaction()
				return nil
			}))
			r.Post("/commit", s.command(func(_ context.Context, app *gaphor.Application) error {
				app.Manager.CommitTransaction()
				return nil
			}))
			r.Post("/discard", s.command(func(_ context.Context, app *gaphor.Application) error {
				return app.Manager.DiscardTransaction()
			}))
			r.Post("/backup", s.command(func(ctx context.Context, app *gaphor.Application) error {
				if app.Backup == nil {
					return script.ErrNoBackup
				}
				return app.Backup.Backup(ctx)
			}))
			r.Post("/restore", s.command(func(ctx context.Context, app *gaphor.Application) error {
				if app.Backup == nil {
					return script.ErrNoBackup
				}
				return app.Backup.Restore(ctx)
			}))
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

// command adapts a document operation into a handler that replies with the new status.
func (s *Server) command(fn func(context.Context, *gaphor.Application) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var status gaphor.Status
		err := s.Documents.WithDocument(r.Context(), id, func(ctx context.Context, app *gaphor.Application) error {
			err := fn(ctx, app)
			status = app.Status()
			return err
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, status)
	}
}

// CommandsResponse is returned by POST /documents/{id}/commands.
type CommandsResponse struct {
	Result *script.Result `json:"result"`
	Status gaphor.Status  `json:"status"`
}

// RunCommands handles POST /documents/{id}/commands.
func (s *Server) RunCommands(w http.ResponseWriter, r *http.Request) {
	steps, err := script.Parse(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	var resp CommandsResponse
	err = s.Documents.WithDocument(r.Context(), id, func(ctx context.Context, app *gaphor.Application) error {
		var err error
		resp.Result, err = s.runner.Run(ctx, app, steps)
		resp.Status = app.Status()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetStatus handles GET /documents/{id}.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.command(func(context.Context, *gaphor.Application) error { return nil })(w, r)
}

// GetModel handles GET /documents/{id}/model.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	var snap *domain.Snapshot
	err := s.Documents.WithDocument(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, app *gaphor.Application) error {
		snap = app.Factory.Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// CloseDocument handles DELETE /documents/{id}.
func (s *Server) CloseDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Documents.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"documents": s.Documents.List()})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "gaphor-http",
		"version": strings.TrimSpace(gaphor.Version),
	})
}

// SubscribeEvents handles GET /documents/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to document events", "document", id)
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "document", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var txErr *domain.TransactionError
	switch {
	case errors.As(err, &txErr):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSnapshotNotFound), errors.Is(err, model.ErrElementNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateElement), errors.Is(err, model.ErrNotInCollection):
		return http.StatusConflict
	case errors.Is(err, script.ErrInvalidStep), errors.Is(err, script.ErrMalformedScript),
		errors.Is(err, script.ErrValueTooLarge), errors.Is(err, script.ErrInvalidUTF8),
		errors.Is(err, script.ErrUnknownAlias),
		errors.Is(err, session.ErrInvalidDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, script.ErrNoBackup):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
	}
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
