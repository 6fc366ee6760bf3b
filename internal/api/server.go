//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/api/handlers"
	apimw "github.com/lazysearch/lazysearch/internal/api/middleware"
	"github.com/lazysearch/lazysearch/internal/api/ratelimit"
	"github.com/lazysearch/lazysearch/internal/health"
	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/logger"
	"github.com/lazysearch/lazysearch/internal/session"
)

const apiPrefix = "/api/v1"

// Deps are the services the server routes to. Scheduler, Metrics and Logs
// are optional; their routes are not registered when nil.
type Deps struct {
	Indexes   *index.Provider
	Sessions  *session.Hub
	Health    *health.Service
	Scheduler handlers.TaskRunner
	Metrics   http.Handler
	Logs      *logger.Recent
	LogFile   string
	// SearchRateLimit caps REST searches per IP and minute. Zero disables it.
	SearchRateLimit int
	Clock           clockwork.Clock
}

// Server is the HTTP API server.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	limiter *ratelimit.IPLimiter
	logger  zerolog.Logger
}

// NewServer creates a new API server instance.
func NewServer(deps Deps, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger.With().Str("component", "api").Logger(),
	}
	if deps.SearchRateLimit > 0 {
		s.limiter = ratelimit.NewIPLimiter(deps.SearchRateLimit, time.Minute, deps.Clock)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(apimw.SecurityHeaders(apiPrefix))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}
	if s.deps.Sessions != nil {
		s.echo.GET("/ws/search", s.deps.Sessions.HandleWebSocket)
	}

	api := s.echo.Group(apiPrefix)

	idx := NewIndexHandlers(s.deps.Indexes, s.deps.Health, s.logger)
	var searchMW []echo.MiddlewareFunc
	if s.limiter != nil {
		searchMW = append(searchMW, s.limiter.Middleware())
	}
	idx.RegisterRoutes(api.Group("/indexes"), searchMW...)

	if s.deps.Health != nil {
		health.NewHandlers(s.deps.Health, s.deps.Indexes).RegisterRoutes(api.Group("/health"))
	}

	if s.deps.Sessions != nil {
		NewSessionHandlers(s.deps.Sessions).RegisterRoutes(api.Group("/sessions"))
	}

	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(api.Group("/scheduler"))
	}

	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs, s.deps.LogFile).RegisterRoutes(api.Group("/logs"))
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// PruneRateLimits drops expired rate limit buckets.
func (s *Server) PruneRateLimits() {
	if s.limiter != nil {
		s.limiter.Cleanup()
	}
}
