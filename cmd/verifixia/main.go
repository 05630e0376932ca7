package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/auth"
	"github.com/verifixia-ai/verifixia/internal/config"
	"github.com/verifixia-ai/verifixia/internal/database"
	"github.com/verifixia-ai/verifixia/internal/detector"
	"github.com/verifixia-ai/verifixia/internal/forensic"
	"github.com/verifixia-ai/verifixia/internal/repository"
	"github.com/verifixia-ai/verifixia/internal/server"
	"github.com/verifixia-ai/verifixia/internal/storage"
)

const migrationsDir = "internal/database/migrations"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := rootLogger(cfg)
	logger.Info().Str("env", cfg.Primary.Env).Str("port", cfg.Server.Port).Msg("starting verifixia")

	var app *newrelic.Application
	if cfg.Observability.Enabled {
		app, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.Observability.ServiceName),
			newrelic.ConfigLicense(cfg.Observability.LicenseKey),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("new relic init failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var remote forensic.DocumentStore
	if cfg.Database.URL != "" {
		if err := database.RunMigrations(ctx, cfg.Database.URL, migrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		pool, err := database.NewPool(ctx, cfg.Database.URL, logger, app)
		if err != nil {
			logger.Fatal().Err(err).Msg("database pool failed")
		}
		defer pool.Close()
		remote = repository.NewForensicRepository(pool)
		logger.Info().Msg("remote forensic store enabled")
	} else {
		logger.Info().Msg("no database configured, forensic log is local-only")
	}

	local := forensic.NewLocalLog(cfg.Forensic.LogPath, logger)
	store := forensic.NewStore(local, remote, logger)

	// A missing or broken model is not fatal; the pipeline degrades to the
	// heuristic tier.
	modelTier, err := detector.LoadModelTier(detector.ModelConfig{
		Path:           cfg.Model.Path,
		RuntimeLibPath: cfg.Model.RuntimeLib,
		InputSize:      cfg.Model.InputSize,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Model.Path).Msg("classifier model unavailable")
	}
	pipeline := detector.New(modelTier, logger)

	archive, err := storage.NewArchiveClient(cfg.Archive)
	if err != nil {
		logger.Fatal().Err(err).Msg("archive client failed")
	}
	if archive != nil {
		if err := archive.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("archive bucket check failed, exports may fail")
		}
	}

	srv := server.New(cfg, pipeline, store, archive, auth.ParseStatic(cfg.Auth.StaticTokens), logger)
	if err := srv.Start(ctx); err != nil {
		logger.Info().Err(err).Msg("server exited")
	}
}

func rootLogger(cfg *config.Config) zerolog.Logger {
	if cfg.Primary.Env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
