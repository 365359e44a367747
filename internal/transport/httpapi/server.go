// Package httpapi exposes the engine over HTTP. Requests are validated,
// turned into commands and queued; the outcome reaches the user later as a
// notice on the configured sinks, so every accepted request answers 202.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/tracing"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
	"github.com/zjrosen/namebridge/internal/transport"
)

// TraceHeader carries a caller-supplied trace id. One is generated when absent.
const TraceHeader = "X-Trace-Id"

// maxBodyBytes bounds request bodies; every payload is a few hundred bytes.
const maxBodyBytes = 64 << 10

// Engine is the part of the engine the API drives.
type Engine interface {
	Submit(cmd command.Command) error
	QueueLength() int
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine  Engine
	decoder *transport.Decoder
	metrics http.Handler
	router  chi.Router
}

// New creates a Server. metrics may be nil to leave /metrics unmounted.
func New(engine Engine, decoder *transport.Decoder, metrics http.Handler) *Server {
	s := &Server{engine: engine, decoder: decoder, metrics: metrics}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceID)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/registrations", s.handleRegistration)
		r.Post("/subdomains", s.handleSubdomain)
		r.Post("/responses", s.handleResponse)
		r.Get("/health", s.handleHealth)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info(log.CatTransport, "http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TraceHeader)
		if id == "" {
			id = tracing.GenerateTraceID()
		}
		w.Header().Set(TraceHeader, id)
		next.ServeHTTP(w, r.WithContext(tracing.ContextWithTraceID(r.Context(), id)))
	})
}

// Accepted is the body of a 202 response.
type Accepted struct {
	CommandID string `json:"commandId"`
	TraceID   string `json:"traceId,omitempty"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req transport.RegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, err := s.decoder.Registration(req)
	s.submit(w, r, cmd, err)
}

func (s *Server) handleSubdomain(w http.ResponseWriter, r *http.Request) {
	var req transport.SubdomainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, err := s.decoder.Subdomain(req)
	s.submit(w, r, cmd, err)
}

func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	var req transport.ResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, err := s.decoder.Response(req)
	s.submit(w, r, cmd, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queueLength": s.engine.QueueLength(),
	})
}

// submit queues cmd, or reports decodeErr when the request was rejected.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, cmd command.Command, decodeErr error) {
	if decodeErr != nil {
		writeError(w, decodeErr)
		return
	}
	ctx := r.Context()
	tracing.StampCommand(ctx, cmd)
	if err := s.engine.Submit(cmd); err != nil {
		log.ErrorErr(log.CatTransport, "submit failed", err, "type", cmd.Type().String())
		writeError(w, err)
		return
	}
	log.Debug(log.CatTransport, "http command accepted", "type", cmd.Type().String(), "id", cmd.ID())
	writeJSON(w, http.StatusAccepted, Accepted{CommandID: cmd.ID(), TraceID: tracing.TraceIDFromContext(ctx)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, types.Invalid("body", "malformed JSON: %v", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case types.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "bad_request", Description: err.Error()})
	case errors.Is(err, command.ErrQueueFull), errors.Is(err, types.ErrProcessorNotRunning):
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: "unavailable", Description: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal_error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn(log.CatTransport, "encoding response failed", "error", err.Error())
	}
}
