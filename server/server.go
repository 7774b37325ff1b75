// Package server provides the HTTP API for mediarag.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"mediarag/pkg/ingest"
	"mediarag/pkg/query"
)

// LLMProber verifies completion-service connectivity for diagnostics routes.
type LLMProber interface {
	Ping(ctx context.Context) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server exposes the ingestion and query API over HTTP.
type Server struct {
	echo        *echo.Echo
	logger      *zap.Logger
	config      *Config
	engine      *query.Engine
	pipeline    *ingest.Pipeline
	llm         LLMProber
	transcripts query.TranscriptFetcher
}

// NewServer creates a new HTTP server.
func NewServer(engine *query.Engine, pipeline *ingest.Pipeline, llm LLMProber, transcripts query.TranscriptFetcher, logger *zap.Logger, cfg *Config) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("query engine cannot be nil")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("ingest pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Port: 8000}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:        e,
		logger:      logger,
		config:      cfg,
		engine:      engine,
		pipeline:    pipeline,
		llm:         llm,
		transcripts: transcripts,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleHealth)
	s.echo.GET("/test-llm/", s.handleTestLLM)

	s.echo.POST("/upload-pdf/", s.handleUploadPDF)
	s.echo.POST("/query/", s.handleQuery)
	s.echo.GET("/documents/", s.handleListDocuments)
	s.echo.POST("/query-document/", s.handleQueryDocument)
	s.echo.POST("/smart-query/", s.handleSmartQuery)

	s.echo.POST("/upload-youtube/", s.handleUploadYouTube)
	s.echo.POST("/query-youtube/", s.handleQueryYouTube)
	s.echo.GET("/videos/", s.handleListVideos)
	s.echo.GET("/youtube-status/", s.handleYouTubeStatus)

	s.echo.POST("/smart-query-all/", s.handleSmartQueryAll)
	s.echo.GET("/content-summary/", s.handleContentSummary)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
