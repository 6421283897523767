// package server serves the read-only display board for a karaoke session
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/karaoke/internal/events"
	"github.com/desertthunder/karaoke/internal/models"
	"github.com/desertthunder/karaoke/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Source is the read side of a session the board renders.
type Source interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	Info(ctx context.Context) (*models.SessionInfo, error)
	Bus() *events.Bus
}

// Server is the display board HTTP server.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// New builds the board server for cfg, with logging and rate limiting applied to every route.
func New(cfg shared.ServerConfig, src Source, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	if cfg.RateLimit > 0 {
		router.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))))
	}

	board := NewBoard(src, logger)
	board.Mount(router)
	router.Handler(NewEventStream(src.Bus(), logger))

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Addr is the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("display board listening", "addr", s.http.Addr)
		errs <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down display board")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
