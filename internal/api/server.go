// Package api serves the todo and categorization HTTP API.
package api

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/todo-suggest/internal/health"
	"github.com/p-blackswan/todo-suggest/internal/metrics"
	"github.com/p-blackswan/todo-suggest/internal/requestid"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr    string
	RateLimit     RateLimitConfig
	CORSOrigins   string
	SessionSecret string
	// ShowErrorDetail exposes 500 error messages to clients.
	ShowErrorDetail bool
}

// Server is the API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig

	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, handlers *Handlers, checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger, cfg.ShowErrorDetail),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:      app,
		handlers: handlers,
		logger:   logger.With().Str("component", "api_server").Logger(),
		config:   cfg,
		done:     make(chan struct{}),
	}

	s.setupMiddleware(cfg)
	s.setupRoutes(handlers, checker, m)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.Middleware())

	// Browser devtools probe these; answer before anything else runs.
	s.app.Use("/.well-known", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("Not Found")
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
			AllowMethods:     "GET, POST, PATCH, DELETE, OPTIONS",
			AllowCredentials: cfg.CORSOrigins != "*",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		rl := newRateLimiter(cfg.RateLimit)
		go rl.run(s.done)
		s.app.Use(rl.middleware())
	}

	s.app.Use(newSessionMiddleware([]byte(cfg.SessionSecret), s.logger))

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		ev := s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", requestid.FromFiber(c))
		if sess := SessionFrom(c); sess != nil {
			ev = ev.Str("user_id", sess.UserID)
		}
		ev.Msg("api request")

		return c.Next()
	})
}

func (s *Server) setupRoutes(h *Handlers, checker *health.Checker, m *metrics.Metrics) {
	s.app.Get("/healthz", health.Liveness)
	s.app.Get("/readyz", checker.Readiness)

	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	api := s.app.Group("/api")

	api.Post("/tasks/categorize", h.Categorize)
	api.Post("/tasks/suggest", h.Suggest)

	api.Get("/projects", h.ListProjects)
	api.Get("/projects/:id", h.GetProject)
	api.Post("/projects/:id/toggle", h.ToggleProject)

	api.Post("/projects/:id/tasks", h.AddTask)
	api.Patch("/projects/:id/tasks/:taskID", h.UpdateTask)
	api.Post("/projects/:id/tasks/:taskID/toggle", h.ToggleTask)
	api.Delete("/projects/:id/tasks/:taskID", h.DeleteTask)

	api.Get("/session", h.CurrentSession)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("API server shutting down")
	s.stopOnce.Do(func() { close(s.done) })
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}
