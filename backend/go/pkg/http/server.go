package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/pkg/httpmiddleware"
	"DocChat/backend/go/pkg/logger"
	"DocChat/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// Server wraps the standard http.Server around a gin engine that already carries the
// recovery and access-log middleware.
type Server struct {
	httpServer      *http.Server
	engine          *gin.Engine
	rateLimit       gin.HandlerFunc
	shutdownTimeout time.Duration
	log             *logger.Logger
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer creates and configures a new Server instance based on the provided AppConfig and options.
// Per-caller rate limiting is built when enabled in the config and exposed through RateLimit,
// because it has to run after authentication to be keyed by user.
func NewServer(cfg *config.AppConfig, log *logger.Logger, opts ...ServerOption) (*Server, error) {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(httpmiddleware.Recovery(log), httpmiddleware.RequestLogger(log))

	srv := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		engine:          engine,
		rateLimit:       func(c *gin.Context) { c.Next() },
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		log:             log,
	}

	if cfg.Middleware.RateLimiter.Enabled {
		factory, err := rateLimiterFactory(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		log.WithField("algorithm", cfg.Middleware.RateLimiter.Algorithm).Info("per-user rate limiting enabled")
		srv.rateLimit = httpmiddleware.RateLimit(ratelimiter.NewKeyed(factory, 0))
	}

	// Apply all the options
	for _, opt := range opts {
		opt(srv)
	}

	// Set a default address if none was provided
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}
	if srv.shutdownTimeout <= 0 {
		srv.shutdownTimeout = 10 * time.Second
	}

	return srv, nil
}

// Engine returns the gin engine routes are registered on.
func (s *Server) Engine() *gin.Engine { return s.engine }

// RateLimit returns the per-caller limiter middleware, a pass-through when disabled.
func (s *Server) RateLimit() gin.HandlerFunc { return s.rateLimit }

// Run serves until ctx is cancelled, then shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("address", s.httpServer.Addr).Info("HTTP server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// rateLimiterFactory builds new per-key limiters for the configured algorithm.
func rateLimiterFactory(cfg config.RateLimiterConfig) (func() ratelimiter.RateLimiter, error) {
	switch cfg.Algorithm {
	case "", "tokenBucket":
		conf := cfg.TokenBucket
		if conf.Rate <= 0 || conf.Capacity <= 0 {
			return nil, fmt.Errorf("tokenBucket needs positive rate and capacity")
		}
		return func() ratelimiter.RateLimiter { return ratelimiter.NewTokenBucket(conf.Rate, conf.Capacity) }, nil
	case "slidingLog":
		conf := cfg.SlidingLog
		if conf.Limit <= 0 || conf.Window <= 0 {
			return nil, fmt.Errorf("slidingLog needs positive limit and window")
		}
		return func() ratelimiter.RateLimiter { return ratelimiter.NewSlidingWindowLog(conf.Limit, conf.Window) }, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}
