package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// helper function to create a mock config for testing
func newTestConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	config.ApplyDefaults(cfg)
	cfg.Middleware.RateLimiter = config.RateLimiterConfig{
		Enabled:   true,
		Algorithm: "tokenBucket",
		TokenBucket: config.TokenBucketConfig{
			Rate:     0.001,
			Capacity: 2,
		},
	}
	return cfg
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewServer_WithAddress(t *testing.T) {
	cfg := newTestConfig()
	addr := ":9999"

	srv, err := NewServer(cfg, logger.Nop(), WithAddress(addr))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	if srv.httpServer.Addr != addr {
		t.Errorf("Expected server address to be %s, but got %s", addr, srv.httpServer.Addr)
	}
}

func TestNewServer_UnknownAlgorithm(t *testing.T) {
	cfg := newTestConfig()
	cfg.Middleware.RateLimiter.Algorithm = "leakyBucket"
	if _, err := NewServer(cfg, logger.Nop()); err == nil {
		t.Fatal("expected an error for an unknown algorithm")
	}
}

func TestRateLimiterIsPerUser(t *testing.T) {
	srv, err := NewServer(newTestConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	asUser := func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), identity.Identity{ID: u}))
		}
		c.Next()
	}
	srv.Engine().GET("/", asUser, srv.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		srv.httpServer.Handler.ServeHTTP(w, req)
		return w.Code
	}

	// First 2 requests should pass (equal to capacity)
	for i := 0; i < 2; i++ {
		if code := do("alice"); code != http.StatusOK {
			t.Errorf("Expected status OK on request %d, got %d", i+1, code)
		}
	}
	// The 3rd request should be rate limited
	if code := do("alice"); code != http.StatusTooManyRequests {
		t.Errorf("Expected status TooManyRequests on request 3, got %d", code)
	}
	// Another user has an untouched budget
	if code := do("bob"); code != http.StatusOK {
		t.Errorf("Expected status OK for a different user, got %d", code)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	srv, err := NewServer(newTestConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	srv.Engine().GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	srv, err := NewServer(newTestConfig(), logger.Nop(), WithAddress(addr))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
