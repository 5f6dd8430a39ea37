package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"streamscout/internal/history"
	"streamscout/internal/logging"
	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
	"streamscout/internal/metrics"
	"streamscout/internal/services"
)

// Resolver is the resolution surface the HTTP layer calls into.
type Resolver interface {
	ResolveMovie(ctx context.Context, catalogID, lang string) (media.Resolution, error)
	ResolveSeries(ctx context.Context, catalogID string, season, episode int, lang string) (media.Resolution, error)
}

// HistoryReader serves the admin history endpoint.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Summary(ctx context.Context) (map[history.Outcome]int, error)
}

// Options configures the listener.
type Options struct {
	Bind string
	// Token protects /api/* and /metrics when set.
	Token string
	// LockPath, when set, enforces a single running server per state directory.
	LockPath string
}

// Deps are the collaborators behind the routes. History and Metrics may be nil.
type Deps struct {
	Resolver Resolver
	Cache    *manifestcache.Cache
	History  HistoryReader
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// Server exposes resolution and admin routes over HTTP.
type Server struct {
	opts    Options
	deps    Deps
	logger  *slog.Logger
	started time.Time

	mu       sync.Mutex
	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
}

// NewServer validates deps and builds the route table.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Resolver == nil {
		return nil, errors.New("api server requires a resolver")
	}
	if deps.Cache == nil {
		return nil, errors.New("api server requires a manifest cache")
	}
	opts.Bind = strings.TrimSpace(opts.Bind)
	s := &Server{
		opts:    opts,
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "api-server"),
		started: time.Now(),
	}
	if opts.LockPath != "" {
		s.lock = flock.New(opts.LockPath)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Resolutions may take ~24s of browser time on top of the TMDB lookup.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, wrapped with request ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /movie/{tmdbId}", s.handleMovie)
	mux.HandleFunc("GET /series/{tmdbId}/{season}/{episode}", s.handleSeries)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/cache", s.authMiddleware(s.handleCacheList))
	mux.HandleFunc("DELETE /api/cache", s.authMiddleware(s.handleCacheFlush))
	mux.HandleFunc("DELETE /api/cache/{key}", s.authMiddleware(s.handleCacheRemove))
	mux.HandleFunc("GET /api/history", s.authMiddleware(s.handleHistory))
	if s.deps.Metrics != nil {
		mux.HandleFunc("GET /metrics", s.authMiddleware(s.deps.Metrics.Handler().ServeHTTP))
	}
	return s.withRequestID(mux)
}

// Start acquires the instance lock, binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("api server already started")
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another streamscout server is already running (lock %s)", s.opts.LockPath)
		}
	}

	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		s.unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.String(logging.FieldEventType, "api_serve_failed"),
				logging.Error(err),
			)
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for up to timeout and releases the lock.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.listener = nil
	s.unlock()
	return err
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.logger.Info("api server shutting down")
	return s.Stop(30 * time.Second)
}

func (s *Server) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("release lock failed", logging.Error(err))
	}
}

// withRequestID tags each request with a correlation ID, honouring X-Request-ID.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := services.WithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Success: false, Error: message})
}
