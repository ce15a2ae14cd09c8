package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const mealColumns = `id, owner_user_id, name, position, target_proteins, target_fat, target_carbons, created_at, updated_at`

func mealDest(m *storage.Meal) []any {
	return []any{
		&m.ID,
		&m.OwnerUserID,
		&m.Name,
		&m.Position,
		&m.TargetProteins,
		&m.TargetFat,
		&m.TargetCarbons,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
}

func (s *PostgresStorage) ListMeals(ctx context.Context, ownerUserID string) ([]storage.Meal, error) {
	query := `
		SELECT ` + mealColumns + `
		FROM meals
		WHERE owner_user_id = $1
		ORDER BY position, created_at
	`
	rows, err := s.pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, mapError(err, "list meals")
	}
	defer rows.Close()

	meals := []storage.Meal{}
	for rows.Next() {
		var m storage.Meal
		if err := rows.Scan(mealDest(&m)...); err != nil {
			return nil, mapError(err, "scan meal")
		}
		meals = append(meals, m)
	}
	return meals, mapError(rows.Err(), "list meals")
}

func (s *PostgresStorage) GetMeal(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.Meal, error) {
	var m storage.Meal
	err := s.pool.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE owner_user_id = $1 AND id = $2`, ownerUserID, id).
		Scan(mealDest(&m)...)
	if err != nil {
		return nil, mapError(err, "get meal")
	}
	return &m, nil
}

func (s *PostgresStorage) CreateMeals(ctx context.Context, meals []*storage.Meal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	query := `
		INSERT INTO meals (` + mealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, m := range meals {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = now
		m.UpdatedAt = now

		if _, err := tx.Exec(ctx, query,
			m.ID, m.OwnerUserID, m.Name, m.Position,
			m.TargetProteins, m.TargetFat, m.TargetCarbons, m.CreatedAt, m.UpdatedAt,
		); err != nil {
			return mapError(err, "create meal")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateMeal(ctx context.Context, m *storage.Meal) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE meals
		SET name = $3, position = $4, target_proteins = $5, target_fat = $6, target_carbons = $7, updated_at = $8
		WHERE owner_user_id = $1 AND id = $2
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query,
		m.OwnerUserID, m.ID, m.Name, m.Position, m.TargetProteins, m.TargetFat, m.TargetCarbons, m.UpdatedAt,
	).Scan(&m.CreatedAt)
	return mapError(err, "update meal")
}

func (s *PostgresStorage) DeleteMeal(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM meals WHERE owner_user_id = $1 AND id = $2`, ownerUserID, id)

	// journal_entries.meal_id is ON DELETE RESTRICT.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
		return storage.ErrReferenced
	}
	return expectOne(tag, err, "delete meal")
}
