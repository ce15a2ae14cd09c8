package postgres

import (
	"context"
	"time"

	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/google/uuid"
)

// productColumns is selected with the "p" alias so joins can reuse it.
const productColumns = `p.id, p.barcode, p.name, p.amount, p.unit, p.picture, p.object_key,
	p.protein, p.fat, p.carbons, p.added_by, p.created_at, p.updated_at`

func productDest(p *storage.Product) []any {
	return []any{
		&p.ID,
		&p.Barcode,
		&p.Name,
		&p.Amount,
		&p.Unit,
		&p.Picture,
		&p.ObjectKey,
		&p.Protein,
		&p.Fat,
		&p.Carbons,
		&p.AddedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func (s *PostgresStorage) ListProducts(ctx context.Context, limit, offset int) ([]storage.Product, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count products")
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		ORDER BY p.name, p.barcode
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, query, limitOrAll(limit), offset)
	if err != nil {
		return nil, 0, mapError(err, "list products")
	}
	defer rows.Close()

	products := []storage.Product{}
	for rows.Next() {
		var p storage.Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, 0, mapError(err, "scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "list products")
	}

	return products, total, nil
}

func (s *PostgresStorage) GetProduct(ctx context.Context, id uuid.UUID) (*storage.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
}

func (s *PostgresStorage) GetProductByBarcode(ctx context.Context, barcode string) (*storage.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products p WHERE p.barcode = $1`, barcode)
}

func (s *PostgresStorage) getProduct(ctx context.Context, query string, arg any) (*storage.Product, error) {
	var p storage.Product
	if err := s.pool.QueryRow(ctx, query, arg).Scan(productDest(&p)...); err != nil {
		return nil, mapError(err, "get product")
	}
	return &p, nil
}

func (s *PostgresStorage) CreateProduct(ctx context.Context, p *storage.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO products (id, barcode, name, amount, unit, picture, object_key,
			protein, fat, carbons, added_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Barcode, p.Name, p.Amount, p.Unit, p.Picture, p.ObjectKey,
		p.Protein, p.Fat, p.Carbons, p.AddedBy, p.CreatedAt, p.UpdatedAt,
	)
	return mapError(err, "create product")
}

func (s *PostgresStorage) UpdateProduct(ctx context.Context, p *storage.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET barcode = $2, name = $3, amount = $4, unit = $5, picture = $6, object_key = $7,
			protein = $8, fat = $9, carbons = $10, updated_at = $11
		WHERE id = $1
		RETURNING created_at, added_by
	`
	err := s.pool.QueryRow(ctx, query,
		p.ID, p.Barcode, p.Name, p.Amount, p.Unit, p.Picture, p.ObjectKey,
		p.Protein, p.Fat, p.Carbons, p.UpdatedAt,
	).Scan(&p.CreatedAt, &p.AddedBy)
	return mapError(err, "update product")
}

// DeleteProduct relies on ON DELETE CASCADE for fridge items and journal entries.
func (s *PostgresStorage) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return expectOne(tag, err, "delete product")
}

// limitOrAll maps "no limit" to NULL, which Postgres treats as LIMIT ALL.
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
