package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogService struct {
	pool *pgxpool.Pool
}

// NewCatalogService constructs a CatalogService backed by PostgreSQL.
func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	sp := &Supplier{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, is_active, created_at
		FROM suppliers
		WHERE id = $1`,
		id,
	).Scan(&sp.ID, &sp.Code, &sp.Name, &sp.IsActive, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("supplier %d not found", id)
		}
		return nil, dbError(err, "get supplier")
	}
	return sp, nil
}

// ListSuppliers returns active suppliers ordered by code.
func (s *catalogService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, is_active, created_at
		FROM suppliers
		WHERE is_active = true
		ORDER BY code`)
	if err != nil {
		return nil, dbError(err, "list suppliers")
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var sp Supplier
		if err := rows.Scan(&sp.ID, &sp.Code, &sp.Name, &sp.IsActive, &sp.CreatedAt); err != nil {
			return nil, dbError(err, "scan supplier")
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *catalogService) GetItemBySKU(ctx context.Context, sku string) (*Item, error) {
	it := &Item{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, sku, name, unit_price, is_active
		FROM items
		WHERE sku = $1`,
		sku,
	).Scan(&it.ID, &it.SKU, &it.Name, &it.UnitPrice, &it.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("item %q not found", sku)
		}
		return nil, dbError(err, "get item")
	}
	return it, nil
}
