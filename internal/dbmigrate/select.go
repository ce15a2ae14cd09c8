package dbmigrate

import (
	"fmt"

	"github.com/fdg312/fridge-journal/internal/config"
)

// Selection is the database URL picked for DDL and where it came from.
type Selection struct {
	URL     string
	Source  string // env key
	Warning string
}

// SelectDatabaseURL picks the URL for migrations: DIRECT > DATABASE_URL > POOLED (with warning).
// With requireDirect only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (Selection, error) {
	switch {
	case cfg.DatabaseURLDirect != "":
		return Selection{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	case requireDirect:
		return Selection{}, fmt.Errorf("DATABASE_URL_DIRECT is required for migrations")
	case cfg.DatabaseURLRaw != "":
		return Selection{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	case cfg.DatabaseURLPooled != "":
		return Selection{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "running migrations through a pooled connection; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Selection{}, fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
