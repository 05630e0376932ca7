// Package server wires the Echo application: middleware, routes and
// lifecycle.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/auth"
	"github.com/verifixia-ai/verifixia/internal/config"
	"github.com/verifixia-ai/verifixia/internal/detector"
	"github.com/verifixia-ai/verifixia/internal/forensic"
	"github.com/verifixia-ai/verifixia/internal/handler"
	"github.com/verifixia-ai/verifixia/internal/response"
	"github.com/verifixia-ai/verifixia/internal/storage"
)

// Server holds the Echo app and its dependencies.
type Server struct {
	Echo     *echo.Echo
	Config   *config.Config
	pipeline *detector.Pipeline
	log      zerolog.Logger
}

// New builds the Echo server and registers routes. archive and verifier may
// be nil.
func New(
	cfg *config.Config,
	pipeline *detector.Pipeline,
	store *forensic.Store,
	archive *storage.ArchiveClient,
	verifier auth.Verifier,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.Server.IdleTimeout) * time.Second
	e.Use(middleware.Recover(), middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.Server.MaxUploadBytes, 10)))
	e.Use(auth.Middleware(verifier))

	detection := &handler.DetectionHandler{
		Pipeline:  pipeline,
		Store:     store,
		UploadDir: cfg.Server.UploadDir,
		Log:       logger,
	}
	logs := &handler.LogsHandler{
		Store:    store,
		Archive:  archive,
		Log:      logger,
		Validate: validator.New(),
	}

	e.GET("/", func(c echo.Context) error {
		return response.OK(c, map[string]any{
			"service": "verifixia",
			"env":     cfg.Primary.Env,
		}, "")
	})
	e.GET("/api/health", detection.Health)
	e.GET("/api/model-info", detection.ModelInfo)
	e.POST("/api/upload", detection.Upload)
	e.Static("/uploads", cfg.Server.UploadDir)

	e.GET("/api/logs", logs.Recent)
	e.POST("/api/logs/live", logs.LiveEvent)
	e.GET("/api/logs/forensic", logs.List)
	e.DELETE("/api/logs/forensic", logs.Clear)
	e.GET("/api/logs/forensic/report", logs.Report)
	e.POST("/api/logs/forensic/export", logs.Export)
	e.GET("/api/logs/forensic/export", logs.ExportList)
	e.GET("/api/logs/forensic/export/content", logs.ExportGet)
	e.DELETE("/api/logs/forensic/:id", logs.Delete)

	return &Server{Echo: e, Config: cfg, pipeline: pipeline, log: logger}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// the server fails. On cancel, Shutdown runs so in-flight requests drain.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("shutdown failed")
		}
	}()
	return s.Echo.Start(":" + s.Config.Server.Port)
}

// Shutdown gracefully stops the server and releases model resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	if cerr := s.pipeline.Close(); err == nil {
		err = cerr
	}
	return err
}
