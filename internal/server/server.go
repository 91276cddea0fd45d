// file: internal/server/server.go
// version: 2.0.0
// guid: 4b5c6d7e-8f9a-0b1c-2d3e-4f5a6b7c8d9e

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/bookshelf/internal/library"
	"github.com/jdfalk/bookshelf/internal/metrics"
	"github.com/jdfalk/bookshelf/internal/openlibrary"
	"github.com/jdfalk/bookshelf/internal/realtime"
	"github.com/jdfalk/bookshelf/internal/server/middleware"
	"github.com/jdfalk/bookshelf/internal/watcher"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        ServerConfig

	// mu serializes every use of store; library.Store does no locking.
	mu      sync.Mutex
	store   *library.Store
	watcher *watcher.Watcher
	events  *realtime.EventHub
	olStore *openlibrary.Store
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port               string
	Host               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxBodyBytes       int64
	// Version is reported by / and /health.
	Version string
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Host:               "localhost",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
		RateLimitPerMinute: 120,
		RateLimitBurst:     20,
		MaxBodyBytes:       1 << 20,
		Version:            "dev",
	}
}

// NewServer creates a server exposing store.
func NewServer(store *library.Store, cfg ServerConfig) *Server {
	router := gin.New()

	// Set up middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())
	router.Use(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst).Middleware())
	router.Use(middleware.MaxRequestBodySize(cfg.MaxBodyBytes))

	// Register metrics (idempotent)
	metrics.Register()

	server := &Server{
		router: router,
		cfg:    cfg,
		store:  store,
		events: realtime.NewEventHub(),
	}

	server.setupRoutes()

	return server
}

// SetLookupCache lets /health report the size of the lookup cache.
func (s *Server) SetLookupCache(store *openlibrary.Store) {
	s.olStore = store
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.apiInfo)
	s.router.GET("/health", s.healthCheck)
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/events", s.events.HandleSSE)

	books := s.router.Group("/books")
	{
		books.GET("", s.listBooks)
		books.POST("", s.createBook)
		books.GET("/:isbn", s.getBook)
		books.DELETE("/:isbn", s.deleteBook)
	}

	s.router.NoRoute(func(c *gin.Context) {
		RespondWithError(c, http.StatusNotFound, "route not found: "+c.Request.URL.Path, "NOT_FOUND")
	})
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Request-Id")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Header("Access-Control-Expose-Headers", "X-Request-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// WatchLibrary reloads the store whenever storage's file is changed by
// something other than this process. Stopped by Run on shutdown.
func (s *Server) WatchLibrary(storage *library.FileStorage) error {
	w := watcher.New(func(string) {
		s.reloadIfChanged(storage)
	}, 0)
	if err := w.Start(storage.Path()); err != nil {
		return fmt.Errorf("watching library file: %w", err)
	}
	s.watcher = w
	return nil
}

func (s *Server) reloadIfChanged(storage *library.FileStorage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := storage.Changed()
	if err != nil {
		log.Printf("[WARN] Library watch: cannot check %s: %v", storage.Path(), err)
		return
	}
	if !changed {
		return
	}
	if _, err := s.store.Reload(); err != nil {
		log.Printf("[ERROR] Library watch: keeping current collection: %v", err)
		return
	}
	log.Printf("[INFO] Library watch: picked up external changes to %s (%d books)", storage.Path(), s.store.Len())
	s.events.SendLibraryReloaded(s.store.Len())
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:        s.router,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Starting server on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.stopWatcher()
		s.events.Close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[INFO] Shutting down server...")
	s.stopWatcher()
	s.events.Close()

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("[INFO] Server exited")
	return nil
}

func (s *Server) stopWatcher() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}
