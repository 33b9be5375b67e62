// seed-demo loads a small, idempotent set of reference data for local
// development: two warehouses, one user per role, suppliers, items, bins and
// reorder rules. Existing rows are left as they are.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"warehouse-inventory/internal/config"
	"warehouse-inventory/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding warehouses...")
	_, err = tx.Exec(ctx, `
		INSERT INTO warehouses (code, name) VALUES
		  ('WH1', 'Main Warehouse'),
		  ('WH2', 'Overflow Warehouse')
		ON CONFLICT (code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed warehouses: %v", err)
	}

	log.Println("Seeding users...")
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, role, warehouse_id)
		SELECT u.username, u.role, w.id
		FROM (VALUES
		    ('manager.wh1', 'MANAGER', 'WH1'),
		    ('staff.wh1',   'STAFF',   'WH1'),
		    ('staff.wh2',   'STAFF',   'WH2')
		) AS u(username, role, warehouse_code)
		JOIN warehouses w ON w.code = u.warehouse_code
		ON CONFLICT (username) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("Seeding suppliers and items...")
	_, err = tx.Exec(ctx, `
		INSERT INTO suppliers (code, name) VALUES
		  ('SUP1', 'Acme Supplies'),
		  ('SUP2', 'Northwind Trading')
		ON CONFLICT (code) DO NOTHING;

		INSERT INTO items (sku, name, unit_price) VALUES
		  ('SKU-A', 'Widget A',        2.50),
		  ('SKU-B', 'Widget B',       10.00),
		  ('SKU-C', 'Packing Tape',    1.00),
		  ('SKU-D', 'Pallet Wrap',    18.75)
		ON CONFLICT (sku) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("Seeding bins...")
	_, err = tx.Exec(ctx, `
		INSERT INTO bins (warehouse_id, code, max_capacity, available_capacity)
		SELECT w.id, b.code, b.capacity, b.capacity
		FROM warehouses w
		CROSS JOIN (VALUES
		    ('A-01', 100),
		    ('A-02', 100),
		    ('B-01', 250),
		    ('BULK', 1000)
		) AS b(code, capacity)
		WHERE w.code IN ('WH1', 'WH2')
		ON CONFLICT (warehouse_id, code) DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed bins: %v", err)
	}

	log.Println("Seeding reorder rules...")
	_, err = tx.Exec(ctx, `
		INSERT INTO reorder_rules (item_id, warehouse_id, min_qty, max_qty, reorder_qty)
		SELECT i.id, w.id, r.min_qty, r.max_qty, r.reorder_qty
		FROM (VALUES
		    ('SKU-A', 20, 100, 60),
		    ('SKU-B', 10,  50, 30)
		) AS r(sku, min_qty, max_qty, reorder_qty)
		JOIN items i ON i.sku = r.sku
		JOIN warehouses w ON w.code = 'WH1'
		ON CONFLICT (item_id, warehouse_id) WHERE is_active DO NOTHING;
	`)
	if err != nil {
		log.Fatalf("Failed to seed reorder rules: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Demo seed data loaded.")
}
