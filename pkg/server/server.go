// Package server provides the HTTP server with graceful startup and shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchantry/merchantry/pkg/accounts"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/catalog"
	"github.com/merchantry/merchantry/pkg/config"
	"github.com/merchantry/merchantry/pkg/demo"
	"github.com/merchantry/merchantry/pkg/health"
	"github.com/merchantry/merchantry/pkg/observability/logger"
	"github.com/merchantry/merchantry/pkg/observability/metrics"
	"github.com/merchantry/merchantry/pkg/orders"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *metrics.Registry
	Tokens   *auth.TokenManager
	Denylist auth.Denylist
	Products *catalog.Service
	Orders   *orders.Service
	Demos    *demo.Service
	Accounts *accounts.Service
	Health   *health.Registry
}

// Server wraps http.Server with configurable timeouts and graceful lifecycle
// management.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	logger     logger.Logger
	deps       Deps
}

// NewServer builds the gin engine, mounts all routes and returns a server
// ready to Start.
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine: engine,
		logger: deps.Logger,
		deps:   deps,
	}

	engine.Use(requestLogger(deps.Logger))
	engine.Use(gin.CustomRecovery(recoveryHandler(deps.Logger)))
	engine.Use(metricsMiddleware())

	s.registerRoutes()

	return s
}

// Handler exposes the underlying engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for requests and blocks until the context is
// cancelled or the listener fails, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.deps.Config.HTTP
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	s.logger.Info("starting server", "port", cfg.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to complete, up to a 30-second timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("shutting down server on %s", s.httpServer.Addr))

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info(fmt.Sprintf("server on %s shutdown complete", s.httpServer.Addr))
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.deps.Registry != nil {
		s.engine.GET("/metrics", gin.WrapH(s.deps.Registry.Handler()))
	}
	if dir := s.deps.Config.Uploads.ImageDir; dir != "" {
		s.engine.Static("/images", dir)
	}

	s.registerAuthRoutes()
	s.registerProductRoutes()
	s.registerOrderRoutes()
	s.registerDemoRoutes()
	s.registerUserRoutes()
	s.registerUploadRoutes()
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	report := s.deps.Health.Check(ctx)
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report.Checks})
}
