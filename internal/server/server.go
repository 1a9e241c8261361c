// Package server exposes the template service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/nbtemplates/internal/auth"
	"github.com/opencode-ai/nbtemplates/internal/templates"
	"github.com/rs/zerolog"
)

// DefaultPort is the listen port used when Options.Port is zero.
const DefaultPort = 8889

// Route names, relative to the base URL.
const (
	RouteNames        = "templates/names"
	RouteGet          = "templates/get"
	RouteTutorialPath = "templates/get_totorial_path"
	RouteHealth       = "healthz"
)

// RequestIDHeader carries the per-request ID.
const RequestIDHeader = "X-Request-ID"

// TemplateService is the subset of templates.Service used by the handlers.
type TemplateService interface {
	ListNames(username string) ([]string, error)
	FetchTemplate(key, username string) (*templates.Record, error)
	TutorialPath() *string
}

// Options configure the server runtime.
type Options struct {
	Hostname        string
	Port            int
	BaseURL         string
	ShutdownTimeout time.Duration
}

// Server serves template endpoints until its context is canceled.
type Server struct {
	logger  zerolog.Logger
	opts    Options
	service TemplateService
	auth    auth.Authenticator
	limiter *RateLimiter
	handler http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithAuthenticator sets how request identities are resolved. The default
// treats every request as anonymous.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(s *Server) {
		if a != nil {
			s.auth = a
		}
	}
}

// WithRateLimiter limits requests per route.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.limiter = rl
	}
}

// New constructs a server for service.
func New(service TemplateService, logger zerolog.Logger, opts Options, options ...Option) (*Server, error) {
	if service == nil {
		return nil, errors.New("template service is required")
	}
	if opts.Hostname == "" {
		opts.Hostname = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	opts.BaseURL = normalizeBaseURL(opts.BaseURL)

	s := &Server{
		logger:  logger,
		opts:    opts,
		service: service,
		auth:    auth.Anonymous(),
	}
	for _, option := range options {
		option(s)
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// URL returns the full path of route under the base URL.
func (s *Server) URL(route string) string {
	return JoinURL(s.opts.BaseURL, route)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, RouteNames, s.handleNames)
	s.handle(mux, RouteGet, s.handleGet)
	s.handle(mux, RouteTutorialPath, s.handleTutorialPath)
	mux.HandleFunc("GET "+s.URL(RouteHealth), s.handleHealth)
	return s.logRequests(mux)
}

func (s *Server) handle(mux *http.ServeMux, route string, fn http.HandlerFunc) {
	var h http.Handler = s.withUser(fn)
	if s.limiter != nil {
		h = s.limiter.Limit(route, h)
	}
	mux.Handle("GET "+s.URL(route), h)
}

// Run starts listening and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	bindAddr := s.bindAddr()
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bindAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("bind", listener.Addr().String()).
		Str("base_url", s.opts.BaseURL).
		Msg("template server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("template server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	s.logger.Info().Msg("template server shutdown complete")
	return nil
}

func (s *Server) bindAddr() string {
	return net.JoinHostPort(s.opts.Hostname, strconv.Itoa(s.opts.Port))
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListNames(usernameOf(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("template")
	record, err := s.service.FetchTemplate(key, usernameOf(r))
	if errors.Is(err, templates.ErrTemplateNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleTutorialPath(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.TutorialPath())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Str("request_id", w.Header().Get(RequestIDHeader)).
		Msg("template request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := auth.Username(s.auth.Session(r))
		next.ServeHTTP(w, r.WithContext(auth.WithUsername(r.Context(), username)))
	})
}

func usernameOf(r *http.Request) string {
	username, _ := auth.UsernameFromContext(r.Context())
	return username
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

// =============================================================================
// URL helpers
// =============================================================================

// JoinURL joins base and route with exactly one slash between them.
func JoinURL(base, route string) string {
	return strings.TrimRight(normalizeBaseURL(base), "/") + "/" + strings.TrimLeft(route, "/")
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
