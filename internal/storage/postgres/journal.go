package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

const journalSelect = `
	SELECT j.id, j.owner_user_id, to_char(j.date, 'YYYY-MM-DD'), j.meal_id, j.product_id, j.amount,
		j.created_at, j.updated_at, ` + productColumns + `
	FROM journal_entries j
	JOIN products p ON p.id = j.product_id
`

func journalDest(e *storage.JournalEntry) []any {
	return append([]any{
		&e.ID,
		&e.OwnerUserID,
		&e.Date,
		&e.MealID,
		&e.ProductID,
		&e.Amount,
		&e.CreatedAt,
		&e.UpdatedAt,
	}, productDest(&e.Product)...)
}

func (s *PostgresStorage) ListJournalEntries(ctx context.Context, ownerUserID string, filter storage.JournalFilter, limit, offset int) ([]storage.JournalEntry, int, error) {
	where := []string{"j.owner_user_id = $1"}
	args := []any{ownerUserID}

	if filter.Date != "" {
		args = append(args, filter.Date)
		where = append(where, fmt.Sprintf("j.date = $%d::date", len(args)))
	} else {
		if filter.From != "" {
			args = append(args, filter.From)
			where = append(where, fmt.Sprintf("j.date >= $%d::date", len(args)))
		}
		if filter.To != "" {
			args = append(args, filter.To)
			where = append(where, fmt.Sprintf("j.date <= $%d::date", len(args)))
		}
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM journal_entries j`+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count journal entries")
	}

	args = append(args, limitOrAll(limit), offset)
	query := journalSelect + cond + fmt.Sprintf(" ORDER BY j.date DESC, j.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "list journal entries")
	}
	defer rows.Close()

	entries := []storage.JournalEntry{}
	for rows.Next() {
		var e storage.JournalEntry
		if err := rows.Scan(journalDest(&e)...); err != nil {
			return nil, 0, mapError(err, "scan journal entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "list journal entries")
	}

	return entries, total, nil
}

func (s *PostgresStorage) GetJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.JournalEntry, error) {
	var e storage.JournalEntry
	err := s.pool.QueryRow(ctx, journalSelect+` WHERE j.owner_user_id = $1 AND j.id = $2`, ownerUserID, id).
		Scan(journalDest(&e)...)
	if err != nil {
		return nil, mapError(err, "get journal entry")
	}
	return &e, nil
}

func (s *PostgresStorage) CreateJournalEntry(ctx context.Context, e *storage.JournalEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()

	// The meal must belong to the same owner; the FK alone does not check that.
	query := `
		INSERT INTO journal_entries (id, owner_user_id, date, meal_id, product_id, amount, created_at, updated_at)
		SELECT $1::uuid, $2::text, $3::date, m.id, $5::uuid, $6::float8, $7::timestamptz, $7::timestamptz
		FROM meals m
		WHERE m.id = $4 AND m.owner_user_id = $2
	`
	tag, err := s.pool.Exec(ctx, query, e.ID, e.OwnerUserID, e.Date, e.MealID, e.ProductID, e.Amount, now)
	if err := expectOne(tag, err, "create journal entry"); err != nil {
		return err
	}

	created, err := s.GetJournalEntry(ctx, e.OwnerUserID, e.ID)
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

func (s *PostgresStorage) UpdateJournalEntry(ctx context.Context, e *storage.JournalEntry) error {
	query := `
		UPDATE journal_entries j
		SET date = $3::date, meal_id = m.id, product_id = $5, amount = $6, updated_at = $7
		FROM meals m
		WHERE j.owner_user_id = $1 AND j.id = $2 AND m.id = $4 AND m.owner_user_id = $1
	`
	tag, err := s.pool.Exec(ctx, query, e.OwnerUserID, e.ID, e.Date, e.MealID, e.ProductID, e.Amount, time.Now().UTC())
	if err := expectOne(tag, err, "update journal entry"); err != nil {
		return err
	}

	updated, err := s.GetJournalEntry(ctx, e.OwnerUserID, e.ID)
	if err != nil {
		return err
	}
	*e = *updated
	return nil
}

func (s *PostgresStorage) DeleteJournalEntry(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM journal_entries WHERE owner_user_id = $1 AND id = $2`, ownerUserID, id)
	return expectOne(tag, err, "delete journal entry")
}
