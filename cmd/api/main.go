package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/dbmigrate"
	"github.com/fdg312/fridge-journal/internal/httpserver"
	"github.com/fdg312/fridge-journal/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: logging.FormatForEnv(cfg.Env)})

	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}
	logStartupBanner(logger, cfg)

	if problems := cfg.Validate(); len(problems) > 0 {
		logger.Fatal().Strs("problems", problems).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		runStartupMigrations(ctx, logger, cfg)
	}

	server, err := httpserver.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}
	defer server.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
		return
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func runStartupMigrations(ctx context.Context, logger zerolog.Logger, cfg *config.Config) {
	sel, err := dbmigrate.SelectDatabaseURL(cfg, true)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup migrations")
	}

	log := logging.Component(logger, "migrate")
	log.Info().Str("command", "up").Str("using", sel.Source).Msg("startup migrations")
	if err := dbmigrate.Run(ctx, "up", sel.URL, ""); err != nil {
		log.Fatal().Err(err).Msg("startup migrations failed")
	}
	log.Info().Msg("startup migrations completed")
}

// logStartupBanner logs the resolved configuration once. Secrets are only
// reported as set / not set.
func logStartupBanner(logger zerolog.Logger, cfg *config.Config) {
	ev := logger.Info().
		Str("env", cfg.Env).
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Str("database", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled)).
		Str("database_direct", config.SetOrNot(cfg.DatabaseURLDirect)).
		Bool("migrations_on_startup", cfg.RunMigrationsOnStartup).
		Str("auth_mode", cfg.AuthMode).
		Bool("auth_required", cfg.AuthRequired).
		Str("jwt_secret", secretStatus(cfg.JWTSecret, "change_me")).
		Str("blob_mode", cfg.Blob.Mode).
		Int("upload_max_mb", cfg.UploadMaxMB).
		Int("page_size", cfg.PageSize).
		Int("reports_max_range_days", cfg.ReportsMaxRangeDays).
		Str("cors_origins", strings.Join(cfg.CORSAllowedOrigins, ","))

	if cfg.Blob.Mode != config.BlobModeLocal {
		ev = ev.Str("s3", cfg.Blob.S3.Summary())
	}
	ev.Msg("fridge journal api")
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "":
		return "not set"
	case insecureDefault:
		return "set (insecure default)"
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
