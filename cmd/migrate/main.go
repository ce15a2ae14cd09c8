package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/dbmigrate"
	"github.com/fdg312/fridge-journal/internal/logging"
)

// Usage: migrate <command>. MIGRATIONS_DIR overrides the embedded migrations.
func main() {
	cfg := config.Load()
	logger := logging.Component(logging.New(logging.Config{Level: cfg.LogLevel, Format: logging.FormatForEnv(cfg.Env)}), "migrate")

	if len(os.Args) < 2 {
		logger.Fatal().Msgf("usage: migrate [%s]", strings.Join(dbmigrate.Commands, "|"))
	}
	command := os.Args[1]
	if !dbmigrate.ValidCommand(command) {
		logger.Fatal().Msgf("unsupported command %q (allowed: %s)", command, strings.Join(dbmigrate.Commands, ", "))
	}

	sel, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("select database")
	}
	if sel.Warning != "" {
		logger.Warn().Msg(sel.Warning)
	}

	dir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))
	logger.Info().Str("command", command).Str("using", sel.Source).Str("dir", dir).Msg("running migrations")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dbmigrate.Run(ctx, command, sel.URL, dir); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}
	logger.Info().Msgf("%s completed", command)
}
