// Package usersapi is a local, in-memory implementation of the users REST
// resource. It backs `userdesk serve` and is the remote used by integration
// tests.
package usersapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/userdesk/userdesk/pkg/httputil"
	"github.com/userdesk/userdesk/pkg/logging"
	"github.com/userdesk/userdesk/pkg/metrics"
	"github.com/userdesk/userdesk/pkg/validation"
)

// MaxBodySize bounds create and update request bodies.
const MaxBodySize = 1 << 20

// Server serves the users resource.
type Server struct {
	resource  *Resource
	validator *validation.BodyValidator
	metrics   *metrics.Registry
	log       *slog.Logger

	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithResource serves an existing resource instead of an empty one.
func WithResource(r *Resource) Option {
	return func(s *Server) {
		if r != nil {
			s.resource = r
		}
	}
}

// WithMetrics sets the registry exposed on /metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.metrics = reg
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a server with an empty resource.
func New(opts ...Option) *Server {
	s := &Server{
		resource:  NewResource(),
		validator: validation.NewBodyValidator(),
		metrics:   metrics.NewAPIRegistry(),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.APIUsers.Set(float64(s.resource.Len()))
	return s
}

// Resource returns the served collection.
func (s *Server) Resource() *Resource {
	return s.resource
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.metrics.Middleware)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteOK(w, map[string]any{"status": "ok", "users": s.resource.Len()})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

// Start listens on addr and serves in the background.
// Use ":0" to pick a free port and Addr to read it back.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("starting users API", "addr", ln.Addr().String(), "users", s.resource.Len())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("users API error", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, s.resource.List())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.resource.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResourceError(w, err)
		return
	}
	httputil.WriteOK(w, u)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.ReadBody(w, r, MaxBodySize)
	if !ok {
		return
	}
	fields, result := s.validator.Validate(body)
	if result.HasErrors() {
		validation.NewErrorResponse(result, http.StatusBadRequest).WriteResponse(w)
		return
	}
	created := s.resource.Create(fields)
	s.metrics.APIUsers.Set(float64(s.resource.Len()))
	httputil.WriteCreated(w, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, ok := httputil.ReadBody(w, r, MaxBodySize)
	if !ok {
		return
	}
	fields, result := s.validator.Validate(body)
	if result.HasErrors() {
		validation.NewErrorResponse(result, http.StatusBadRequest).WriteResponse(w)
		return
	}
	updated, err := s.resource.Update(id, fields)
	if err != nil {
		s.writeResourceError(w, err)
		return
	}
	httputil.WriteOK(w, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.resource.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.writeResourceError(w, err)
		return
	}
	s.metrics.APIUsers.Set(float64(s.resource.Len()))
	httputil.WriteOK(w, deleted)
}

func (s *Server) writeResourceError(w http.ResponseWriter, err error) {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		httputil.WriteNotFound(w, "not_found", notFound.Error())
		return
	}
	s.log.Error("users API internal error", "error", err)
	httputil.WriteInternalError(w, "internal_error", "internal server error")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// cors allows the resource to be used from a browser on another origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
