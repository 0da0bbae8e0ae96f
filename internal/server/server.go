// Package server is the admin HTTP server. It renders the admin UI, serves a
// small JSON API and the live update websocket, and owns the lifecycle of the
// listener.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/sitepanel/internal/config"
	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/sites"
	"github.com/conneroisu/sitepanel/internal/websocket"
)

// shutdownTimeout bounds the graceful shutdown started by a cancelled Start.
const shutdownTimeout = 30 * time.Second

// Server serves the admin UI.
type Server struct {
	config       *config.Config
	sites        *sites.Service
	hub          *websocket.Hub
	limiter      *RateLimiter
	logger       logging.Logger
	errorHandler *errors.ErrorHandler
	handler      http.Handler

	httpServer  *http.Server
	serverMutex sync.RWMutex
	isShutdown  bool
	startedAt   time.Time
}

// New creates a server. hub may be nil, in which case /ws is not served.
func New(cfg *config.Config, svc *sites.Service, hub *websocket.Hub, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.WithComponent("server")

	s := &Server{
		config:       cfg,
		sites:        svc,
		hub:          hub,
		logger:       logger,
		errorHandler: errors.NewErrorHandler(logger),
		startedAt:    time.Now(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	proxies, err := NewTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Warn(context.Background(), err, "Ignoring invalid trusted proxies")
	}

	middlewares := []Middleware{
		RequestLogging(proxies, logger),
		SecurityHeaders(cfg.Server.AllowedOrigins, cfg.Server.Environment == "production", logger),
	}
	if cfg.Server.RateLimit.Enabled {
		s.limiter = NewRateLimiter(cfg.Server.RateLimit, logger)
		middlewares = append(middlewares, s.limiter.Middleware)
	}
	middlewares = append(middlewares, Recovery(logger))

	s.handler = chain(mux, middlewares...)

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return errors.WrapNetwork(err, errors.ErrCodeInternalError, "listen on "+s.config.Addr()).
			WithComponent("server")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.serverMutex.Lock()
	if s.isShutdown {
		s.serverMutex.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server has been shut down")
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = server
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Admin server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)

	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown stops the listener, the live update hub and the rate limiter.
// It is idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()

	if s.isShutdown {
		return nil
	}
	s.isShutdown = true

	s.logger.Info(ctx, "Shutting down admin server")

	if s.limiter != nil {
		s.limiter.Stop()
	}

	var shutdownErr error
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("websocket shutdown failed: %w", err)
		}
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	return shutdownErr
}

// IsShutdown returns whether the server has been shut down
func (s *Server) IsShutdown() bool {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	return s.isShutdown
}
