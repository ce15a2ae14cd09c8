// Package logging builds the zerolog loggers used by the server and the CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger construction.
type Config struct {
	Level  string // trace|debug|info|warn|error
	Format string // console|json
	Out    io.Writer
}

// FormatForEnv picks console output for local runs and JSON everywhere else.
func FormatForEnv(env string) string {
	if env == "local" || env == "" {
		return FormatConsole
	}
	return FormatJSON
}

// New returns a logger writing to cfg.Out (stderr when nil).
// Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Component tags every event with the emitting subsystem.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
