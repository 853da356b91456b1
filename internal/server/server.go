// Package server exposes the resolution pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/answer"
	"github.com/Yates-Labs/concierge/internal/lead"
	"github.com/Yates-Labs/concierge/internal/orchestrator"
	"github.com/Yates-Labs/concierge/internal/unanswered"
)

// Resolver answers chat questions
type Resolver interface {
	Resolve(ctx context.Context, q answer.Question) orchestrator.Response
	Abandon(err error) orchestrator.Response
}

// QuestionLogger accepts unanswered questions reported by the widget
type QuestionLogger interface {
	Dispatch(question string) (unanswered.Status, error)
}

// LeadSubmitter stores contact requests
type LeadSubmitter interface {
	Submit(ctx context.Context, l lead.Lead) error
}

// Config holds HTTP server configuration
type Config struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	// MaxBodyBytes caps request bodies; 0 means 64 KiB
	MaxBodyBytes int64
}

// Server is the HTTP boundary of the service
type Server struct {
	router   *gin.Engine
	server   *http.Server
	resolver Resolver
	logs     QuestionLogger
	leads    LeadSubmitter
	logger   *zap.Logger
	maxBody  int64
}

// NewServer creates a server with all routes registered
func NewServer(cfg Config, resolver Resolver, logs QuestionLogger, leads LeadSubmitter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(Recovery(logger))
	router.Use(CORSMiddleware(DefaultCORSConfig()))

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 10
	}

	s := &Server{
		router:   router,
		resolver: resolver,
		logs:     logs,
		leads:    leads,
		logger:   logger,
		maxBody:  maxBody,
		server: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthHandler)

	api := s.router.Group("/api")
	api.POST("/chat", s.chatHandler)
	api.POST("/log-unanswered", s.logUnansweredHandler)
	api.POST("/lead", s.leadHandler)
	// Preflights are answered by the CORS middleware
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
