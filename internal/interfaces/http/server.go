// Package http exposes the public and admin file APIs over gin.
// Handlers are a thin layer translating HTTP requests to service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IndexPath     string
	JSONBodyLimit int64
	UploadLimit   int64
	AdminPassword string
	// Mode is the gin mode; empty means release
	Mode string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          3000,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  120 * time.Second,
		IndexPath:     "web/index.html",
		JSONBodyLimit: 100 * 1024,
		UploadLimit:   50 * 1024 * 1024,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config       ServerConfig
	httpServer   *http.Server
	router       *gin.Engine
	resolver     *service.AccountResolver
	fileService  service.FileService
	usageService service.UsageService
	content      port.ContentReader
	logger       Logger
}

// NewServer creates a new HTTP server with the given services.
// content may be nil; /objects/:id is only registered when the store can
// serve bytes itself.
func NewServer(
	config ServerConfig,
	resolver *service.AccountResolver,
	fileService service.FileService,
	usageService service.UsageService,
	content port.ContentReader,
	logger Logger,
) *Server {
	mode := config.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()
	router.MaxMultipartMemory = config.UploadLimit

	server := &Server{
		config:       config,
		router:       router,
		resolver:     resolver,
		fileService:  fileService,
		usageService: usageService,
		content:      content,
		logger:       logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.resolver, s.fileService, s.usageService, s.content, HandlerConfig{
		AdminPassword: s.config.AdminPassword,
		UploadLimit:   s.config.UploadLimit,
	}, s.logger)

	jsonBody := bodyLimitMiddleware(s.config.JSONBodyLimit)

	if s.config.IndexPath != "" {
		s.router.StaticFile("/", s.config.IndexPath)
	}
	s.router.GET("/health", handlers.HealthCheck)

	s.router.GET("/accounts", handlers.ListAccounts)
	s.router.GET("/files", handlers.ListFiles)
	s.router.GET("/stats", handlers.FolderStats)
	s.router.POST("/upload", handlers.Upload)
	s.router.POST("/upload-url", jsonBody, handlers.UploadFromURL)

	if s.content != nil {
		s.router.GET("/objects/:id", handlers.ServeObject)
	}

	s.router.POST("/admin/login", jsonBody, handlers.AdminLogin)

	admin := s.router.Group("/admin", AdminAuth(s.config.AdminPassword), jsonBody)
	{
		admin.GET("/stats-all", handlers.ServerStats)
		admin.GET("/files/:index", handlers.AdminListFiles)
		admin.GET("/files/:index/export", handlers.ExportFiles)
		admin.DELETE("/files/:index/:id", handlers.DeleteFile)
		admin.POST("/delete-multiple", handlers.DeleteMultiple)
		admin.POST("/rename", handlers.RenameFile)
		admin.POST("/empty-trash/:index", handlers.EmptyTrash)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
