// Package api provides the HTTP API server for Dockboard.
// It uses Echo framework to serve the JSON endpoints and a WebSocket feed
// announcing host and app changes to connected dashboards.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/dockboard/internal/aggregate"
	"evalgo.org/dockboard/internal/apps"
	"evalgo.org/dockboard/internal/config"
	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/hosts"
)

// Deps are the components the handlers work on.
type Deps struct {
	Registry   *hosts.Registry
	Aggregator *aggregate.Aggregator
	Catalog    *apps.Catalog
	// Factory builds the throwaway adapters of connection tests.
	Factory engine.Factory
	Logger  *slog.Logger
}

// Server represents the Dockboard API server.
type Server struct {
	echo       *echo.Echo
	config     *config.Config
	registry   *hosts.Registry
	aggregator *aggregate.Aggregator
	catalog    *apps.Catalog
	factory    engine.Factory
	hub        *Hub
	logger     *slog.Logger
}

// New creates a new API server instance and starts its websocket hub.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug
	e.HTTPErrorHandler = HTTPErrorHandler

	s := &Server{
		echo:       e,
		config:     cfg,
		registry:   deps.Registry,
		aggregator: deps.Aggregator,
		catalog:    deps.Catalog,
		factory:    deps.Factory,
		hub:        NewHub(logger),
		logger:     logger,
	}

	go s.hub.Run()

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(RequestID())
	s.echo.Use(RequestLogger(s.logger))
	s.echo.Use(middleware.Recover())
	s.echo.Use(SecurityHeaders)

	if len(s.config.Security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if s.config.Security.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Security.RateLimit),
		)))
	}

	s.echo.Use(ValidateContentType)
	s.echo.Use(ValidateAcceptHeader)
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1")

	v1.GET("/dashboard", s.getDashboard, ValidateFidelity)

	h := v1.Group("/hosts")
	h.GET("", s.listHosts)
	h.POST("", s.createHost)
	h.GET("/current", s.currentHost)
	h.GET("/:id", s.getHost, ValidateHostID)
	h.PUT("/:id", s.updateHost, ValidateHostID)
	h.DELETE("/:id", s.deleteHost, ValidateHostID)
	h.POST("/:id/switch", s.switchHost, ValidateHostID)
	h.POST("/:id/test", s.testHost, ValidateHostID)
	h.GET("/:id/stats", s.hostStats, ValidateHostID)
	h.GET("/:id/unused", s.unusedResources, ValidateHostID)
	h.GET("/:id/containers/:cid", s.containerDetail, ValidateHostID)
	h.GET("/:id/containers/:cid/stats", s.containerStats, ValidateHostID)

	a := v1.Group("/apps")
	a.GET("", s.listApps)
	a.POST("", s.createApp)
	a.GET("/categories", s.appCategories)
	a.GET("/:id", s.getApp, ValidateAppID)
	a.PUT("/:id", s.updateApp, ValidateAppID)
	a.DELETE("/:id", s.deleteApp, ValidateAppID)

	ws := v1.Group("/ws")
	ws.GET("/events", s.handleWebSocket)
	ws.GET("/stats", s.webSocketStats)
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	s.logger.Info("Starting Dockboard API server",
		"address", addr,
		"hosts_file", s.registry.Path(),
		"stats_enabled", s.config.Dashboard.EnableStats,
		"debug", s.config.Server.Debug,
	)

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down Dockboard API server")
	s.hub.Stop()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

// Publish pushes an event to websocket clients.
func (s *Server) Publish(t EventType, data interface{}) {
	s.hub.Publish(t, data)
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
