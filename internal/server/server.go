// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/health"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
	"github.com/carterperez-dev/templates/accounts-api/internal/view"
)

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler *health.Handler
	Views         *view.Renderer
	Logger        *slog.Logger
	// Debug exposes unexpected error details to clients.
	Debug bool
}

type Server struct {
	httpServer *http.Server
	router     chi.Router
	health     *health.Handler
	views      *view.Renderer
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		health: cfg.HealthHandler,
		views:  cfg.Views,
		logger: cfg.Logger,
	}

	s.router.Use(middleware.ErrorDetail(cfg.Debug), s.recoverer)
	s.router.NotFound(s.notFound)
	s.router.MethodNotAllowed(s.methodNotAllowed)

	s.httpServer = &http.Server{
		Addr:         cfg.ServerConfig.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ServerConfig.ReadTimeout,
		WriteTimeout: cfg.ServerConfig.WriteTimeout,
		IdleTimeout:  cfg.ServerConfig.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError),
	}

	return s
}

func (s *Server) Router() chi.Router {
	return s.router
}

// ServeFiles exposes a local directory read-only under prefix.
func (s *Server) ServeFiles(prefix, dir string) {
	prefix = strings.TrimRight(prefix, "/") + "/"
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	s.router.Handle(prefix+"*", fs)
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown fails readiness first so load balancers stop routing here,
// waits drainDelay, then stops accepting connections and drains the rest.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetReady(false)
		s.health.SetShutdown(true)
	}

	select {
	case <-time.After(drainDelay):
	case <-ctx.Done():
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Fail renders err as JSON for API requests and as the error page for
// everything else.
func (s *Server) Fail(w http.ResponseWriter, r *http.Request, err error) {
	if core.IsAPIPath(r.URL.Path) || s.views == nil {
		core.Fail(w, r, err)
		return
	}

	appErr, ok := core.Translate(err)
	if !ok {
		s.logger.ErrorContext(r.Context(), "unhandled error",
			"error", err,
			"path", r.URL.Path,
		)
		message := "Please try again later."
		if core.DebugFromContext(r.Context()) {
			message = err.Error()
		}
		s.views.Error(w, r, http.StatusInternalServerError, message)
		return
	}

	s.views.Error(w, r, appErr.StatusCode, appErr.Message)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.Fail(w, r, core.NotFoundError(
		fmt.Sprintf("Can't find %s on the server!", r.URL.Path),
	))
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.Fail(w, r, core.NewAppError(
		core.ErrInvalidInput,
		fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path),
		http.StatusMethodNotAllowed,
		"METHOD_NOT_ALLOWED",
	))
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			//nolint:errorlint,err113 // re-panic the sentinel untouched
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			s.logger.ErrorContext(r.Context(), "panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			s.Fail(w, r, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}
