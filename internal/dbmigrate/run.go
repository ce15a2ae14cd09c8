package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/fdg312/fridge-journal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Commands accepted by Run.
var Commands = []string{"up", "down", "status", "version", "redo", "reset"}

// ValidCommand reports whether command is one of Commands.
func ValidCommand(command string) bool {
	for _, c := range Commands {
		if c == command {
			return true
		}
	}
	return false
}

// Run applies a goose command. An empty migrationsDir uses the migrations
// compiled into the binary.
func Run(ctx context.Context, command, dbURL, migrationsDir string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if !ValidCommand(command) {
		return fmt.Errorf("unsupported migrate command %q", command)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	fsys, dir := migrationsFS(migrationsDir)
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

func migrationsFS(dir string) (fs.FS, string) {
	if dir == "" {
		return migrations.FS, "."
	}
	return os.DirFS(dir), "."
}
