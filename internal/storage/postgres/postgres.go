package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Storage = (*PostgresStorage)(nil)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// PostgresStorage implements storage.Storage on a pgx pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and checks the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// Ping is used by the readiness check.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// mapError converts driver errors to storage sentinels.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return storage.ErrAlreadyExists
		case codeForeignKeyViolation:
			return storage.ErrNotFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// expectOne turns an exec that touched no rows into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return mapError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
