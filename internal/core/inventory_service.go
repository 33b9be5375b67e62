package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultExpiryWindowDays = 30

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

// ── Read views ────────────────────────────────────────────────────────────────

func (s *inventoryService) StockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.sku, i.name, b.id, b.code, sl.batch_id, bt.batch_code,
		       SUM(sl.quantity)::bigint
		FROM stock_lots sl
		JOIN items i ON i.id = sl.item_id
		JOIN bins b  ON b.id = sl.bin_id
		LEFT JOIN batches bt ON bt.id = sl.batch_id
		WHERE sl.warehouse_id = $1 AND sl.quantity > 0
		GROUP BY i.id, i.sku, i.name, b.id, b.code, sl.batch_id, bt.batch_code
		ORDER BY i.sku, b.code, sl.batch_id
	`, warehouseID)
	if err != nil {
		return nil, dbError(err, "query stock levels")
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var l StockLevel
		if err := rows.Scan(&l.ItemID, &l.SKU, &l.ItemName, &l.BinID, &l.BinCode,
			&l.BatchID, &l.BatchCode, &l.Quantity); err != nil {
			return nil, dbError(err, "scan stock level")
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// StockAging lists live lots oldest first with their value at catalog price.
func (s *inventoryService) StockAging(ctx context.Context, warehouseID int) ([]StockAge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sl.id, i.id, i.sku, i.name, sl.warehouse_id, b.code, sl.quantity,
		       EXTRACT(DAY FROM NOW() - sl.received_at)::int,
		       sl.quantity * i.unit_price
		FROM stock_lots sl
		JOIN items i ON i.id = sl.item_id
		JOIN bins b  ON b.id = sl.bin_id
		WHERE ($1 = 0 OR sl.warehouse_id = $1) AND sl.quantity > 0
		ORDER BY sl.received_at, sl.id
	`, warehouseID)
	if err != nil {
		return nil, dbError(err, "query stock aging")
	}
	defer rows.Close()

	var out []StockAge
	for rows.Next() {
		var a StockAge
		if err := rows.Scan(&a.LotID, &a.ItemID, &a.SKU, &a.ItemName, &a.WarehouseID, &a.BinCode,
			&a.Quantity, &a.AgeDays, &a.Value); err != nil {
			return nil, dbError(err, "scan stock age")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ExpiringBatches lists batches expiring within days that still hold stock,
// soonest first. Already expired batches are included with a negative DaysLeft.
func (s *inventoryService) ExpiringBatches(ctx context.Context, warehouseID, days int) ([]ExpiringBatch, error) {
	if days <= 0 {
		days = defaultExpiryWindowDays
	}
	rows, err := s.pool.Query(ctx, `
		SELECT bt.id, bt.batch_code, i.id, i.sku, i.name, b.code, bt.expiry_date,
		       (bt.expiry_date - CURRENT_DATE)::int,
		       SUM(sl.quantity)::bigint
		FROM batches bt
		JOIN stock_lots sl ON sl.batch_id = bt.id AND sl.quantity > 0
		JOIN items i ON i.id = bt.item_id
		JOIN bins b  ON b.id = sl.bin_id
		WHERE bt.warehouse_id = $1
		  AND bt.expiry_date IS NOT NULL
		  AND bt.expiry_date <= CURRENT_DATE + $2::int
		GROUP BY bt.id, bt.batch_code, i.id, i.sku, i.name, b.code, bt.expiry_date
		ORDER BY bt.expiry_date, bt.id, b.code
	`, warehouseID, days)
	if err != nil {
		return nil, dbError(err, "query expiring batches")
	}
	defer rows.Close()

	var out []ExpiringBatch
	for rows.Next() {
		var e ExpiringBatch
		if err := rows.Scan(&e.BatchID, &e.BatchCode, &e.ItemID, &e.SKU, &e.ItemName, &e.BinCode,
			&e.ExpiryDate, &e.DaysLeft, &e.Quantity); err != nil {
			return nil, dbError(err, "scan expiring batch")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *inventoryService) OnHand(ctx context.Context, itemID, warehouseID int) (int64, error) {
	return onHand(ctx, s.pool, itemID, warehouseID)
}

func onHand(ctx context.Context, q querier, itemID, warehouseID int) (int64, error) {
	var qty int64
	if err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::bigint
		FROM stock_lots
		WHERE item_id = $1 AND warehouse_id = $2
	`, itemID, warehouseID).Scan(&qty); err != nil {
		return 0, dbError(err, "sum on-hand stock")
	}
	return qty, nil
}
