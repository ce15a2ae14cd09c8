package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

const fridgeSelect = `
	SELECT f.id, f.owner_user_id, f.product_id, f.current_amount, f.threshold,
		f.is_on_shopping_list, f.created_at, f.updated_at, ` + productColumns + `
	FROM fridge_items f
	JOIN products p ON p.id = f.product_id
`

func fridgeDest(item *storage.FridgeItem) []any {
	return append([]any{
		&item.ID,
		&item.OwnerUserID,
		&item.ProductID,
		&item.CurrentAmount,
		&item.Threshold,
		&item.IsOnShoppingList,
		&item.CreatedAt,
		&item.UpdatedAt,
	}, productDest(&item.Product)...)
}

func (s *PostgresStorage) ListFridgeItems(ctx context.Context, ownerUserID string, filter storage.FridgeFilter, limit, offset int) ([]storage.FridgeItem, int, error) {
	where := []string{"f.owner_user_id = $1"}
	args := []any{ownerUserID}

	if filter.OnShoppingList != nil {
		args = append(args, *filter.OnShoppingList)
		where = append(where, fmt.Sprintf("f.is_on_shopping_list = $%d", len(args)))
	}
	if filter.BelowThreshold {
		where = append(where, "f.current_amount < f.threshold")
	}
	if name := strings.TrimSpace(filter.ProductName); name != "" {
		args = append(args, "%"+name+"%")
		where = append(where, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM fridge_items f JOIN products p ON p.id = f.product_id` + cond
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count fridge items")
	}

	args = append(args, limitOrAll(limit), offset)
	query := fridgeSelect + cond + fmt.Sprintf(" ORDER BY p.name, f.created_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "list fridge items")
	}
	defer rows.Close()

	items := []storage.FridgeItem{}
	for rows.Next() {
		var item storage.FridgeItem
		if err := rows.Scan(fridgeDest(&item)...); err != nil {
			return nil, 0, mapError(err, "scan fridge item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "list fridge items")
	}

	return items, total, nil
}

func (s *PostgresStorage) GetFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.FridgeItem, error) {
	var item storage.FridgeItem
	err := s.pool.QueryRow(ctx, fridgeSelect+` WHERE f.owner_user_id = $1 AND f.id = $2`, ownerUserID, id).
		Scan(fridgeDest(&item)...)
	if err != nil {
		return nil, mapError(err, "get fridge item")
	}
	return &item, nil
}

func (s *PostgresStorage) CreateFridgeItem(ctx context.Context, item *storage.FridgeItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO fridge_items (id, owner_user_id, product_id, current_amount, threshold,
			is_on_shopping_list, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		item.ID, item.OwnerUserID, item.ProductID, item.CurrentAmount, item.Threshold,
		item.IsOnShoppingList, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create fridge item")
	}

	product, err := s.GetProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	item.Product = *product
	return nil
}

func (s *PostgresStorage) UpdateFridgeItem(ctx context.Context, item *storage.FridgeItem) error {
	query := `
		UPDATE fridge_items
		SET current_amount = $3, threshold = $4, is_on_shopping_list = $5, updated_at = $6
		WHERE owner_user_id = $1 AND id = $2
	`
	tag, err := s.pool.Exec(ctx, query,
		item.OwnerUserID, item.ID, item.CurrentAmount, item.Threshold, item.IsOnShoppingList, time.Now().UTC(),
	)
	if err := expectOne(tag, err, "update fridge item"); err != nil {
		return err
	}

	updated, err := s.GetFridgeItem(ctx, item.OwnerUserID, item.ID)
	if err != nil {
		return err
	}
	*item = *updated
	return nil
}

func (s *PostgresStorage) DeleteFridgeItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fridge_items WHERE owner_user_id = $1 AND id = $2`, ownerUserID, id)
	return expectOne(tag, err, "delete fridge item")
}
