package postgres

import (
	"context"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, first_name, last_name, picture, password_hash, created_at, updated_at`

func (s *PostgresStorage) CreateUser(ctx context.Context, u *storage.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Picture, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return mapError(err, "create user")
}

func (s *PostgresStorage) GetUser(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (s *PostgresStorage) getUser(ctx context.Context, query string, arg any) (*storage.User, error) {
	var u storage.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Picture,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return &u, nil
}
