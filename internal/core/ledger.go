package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MovementType is the direction of a ledger entry.
type MovementType string

const (
	MovementIn   MovementType = "IN"
	MovementOut  MovementType = "OUT"
	MovementMove MovementType = "MOVE"
)

// ReferenceType names the business document behind a ledger entry.
type ReferenceType string

const (
	RefGRN      ReferenceType = "GRN"
	RefPick     ReferenceType = "PICK"
	RefIssue    ReferenceType = "ISSUE"
	RefTransfer ReferenceType = "TRANSFER"
)

// LedgerEntry is an immutable signed stock movement. IN is positive, OUT is
// negative, MOVE is negative at the source bin and positive at the target.
type LedgerEntry struct {
	ID            int64         `json:"id"`
	ItemID        int           `json:"item_id"`
	WarehouseID   int           `json:"warehouse_id"`
	BinID         int           `json:"bin_id"`
	BatchID       *int          `json:"batch_id,omitempty"`
	Movement      MovementType  `json:"movement"`
	Quantity      int64         `json:"quantity"`
	ReferenceType ReferenceType `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id,omitempty"`
	ActorID       int           `json:"actor_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// LedgerKey identifies one conserved stock position.
type LedgerKey struct {
	ItemID      int  `json:"item_id"`
	WarehouseID int  `json:"warehouse_id"`
	BinID       int  `json:"bin_id"`
	BatchID     *int `json:"batch_id,omitempty"`
}

// Discrepancy is a key whose ledger sum differs from its live lot quantity.
type Discrepancy struct {
	Key       LedgerKey `json:"key"`
	LedgerQty int64     `json:"ledger_qty"`
	LotQty    int64     `json:"lot_qty"`
}

// LedgerFilter narrows Entries. Zero fields are ignored.
type LedgerFilter struct {
	ItemID      int `json:"item_id"`
	WarehouseID int `json:"warehouse_id"`
	BinID       int `json:"bin_id"`
	Limit       int `json:"limit"`
}

// Ledger is the insert-only stock ledger. Writes happen only inside the
// caller's transaction through AppendTx.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// checkSign enforces the sign convention for a movement type.
func (e LedgerEntry) checkSign() error {
	switch e.Movement {
	case MovementIn:
		if e.Quantity <= 0 {
			return ValidationError("ledger IN quantity must be positive, got %d", e.Quantity)
		}
	case MovementOut:
		if e.Quantity >= 0 {
			return ValidationError("ledger OUT quantity must be negative, got %d", e.Quantity)
		}
	case MovementMove:
		if e.Quantity == 0 {
			return ValidationError("ledger MOVE quantity must be non-zero")
		}
	default:
		return ValidationError("unknown ledger movement %q", e.Movement)
	}
	return nil
}

// AppendTx inserts entry inside tx and returns its ID.
func (l *Ledger) AppendTx(ctx context.Context, tx pgx.Tx, entry LedgerEntry) (int64, error) {
	if err := entry.checkSign(); err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_ledger (item_id, warehouse_id, bin_id, batch_id, movement_type, quantity,
		                          reference_type, reference_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		entry.ItemID, entry.WarehouseID, entry.BinID, entry.BatchID, string(entry.Movement), entry.Quantity,
		string(entry.ReferenceType), entry.ReferenceID, entry.ActorID,
	).Scan(&id); err != nil {
		return 0, dbError(err, "append ledger entry")
	}
	return id, nil
}

// Entries returns ledger rows newest first.
func (l *Ledger) Entries(ctx context.Context, f LedgerFilter) ([]LedgerEntry, error) {
	query := `
		SELECT id, item_id, warehouse_id, bin_id, batch_id, movement_type, quantity,
		       reference_type, reference_id, actor_id, created_at
		FROM stock_ledger
		WHERE ($1 = 0 OR item_id = $1)
		  AND ($2 = 0 OR warehouse_id = $2)
		  AND ($3 = 0 OR bin_id = $3)
		ORDER BY id DESC`
	args := []any{f.ItemID, f.WarehouseID, f.BinID}
	if f.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, f.Limit)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "list ledger entries")
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.WarehouseID, &e.BinID, &e.BatchID, &e.Movement, &e.Quantity,
			&e.ReferenceType, &e.ReferenceID, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, dbError(err, "scan ledger entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Balance sums the signed ledger entries of one key.
func (l *Ledger) Balance(ctx context.Context, key LedgerKey) (int64, error) {
	var sum int64
	if err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)::bigint
		FROM stock_ledger
		WHERE item_id = $1 AND warehouse_id = $2 AND bin_id = $3
		  AND batch_id IS NOT DISTINCT FROM $4`,
		key.ItemID, key.WarehouseID, key.BinID, key.BatchID,
	).Scan(&sum); err != nil {
		return 0, dbError(err, "sum ledger")
	}
	return sum, nil
}

// Reconcile compares ledger sums with live lot quantities for every key in a
// warehouse and returns the keys that disagree. An empty result means stock
// is conserved.
func (l *Ledger) Reconcile(ctx context.Context, warehouseID int) ([]Discrepancy, error) {
	rows, err := l.pool.Query(ctx, `
		WITH ledger AS (
			SELECT item_id, bin_id, COALESCE(batch_id, 0) AS batch_id, SUM(quantity)::bigint AS qty
			FROM stock_ledger
			WHERE warehouse_id = $1
			GROUP BY 1, 2, 3
		), lots AS (
			SELECT item_id, bin_id, COALESCE(batch_id, 0) AS batch_id, SUM(quantity)::bigint AS qty
			FROM stock_lots
			WHERE warehouse_id = $1
			GROUP BY 1, 2, 3
		)
		SELECT COALESCE(l.item_id, s.item_id), $1::int,
		       COALESCE(l.bin_id, s.bin_id), NULLIF(COALESCE(l.batch_id, s.batch_id), 0),
		       COALESCE(l.qty, 0), COALESCE(s.qty, 0)
		FROM ledger l
		FULL OUTER JOIN lots s
		  ON s.item_id = l.item_id AND s.bin_id = l.bin_id AND s.batch_id = l.batch_id
		WHERE COALESCE(l.qty, 0) <> COALESCE(s.qty, 0)
		ORDER BY 1, 3`,
		warehouseID,
	)
	if err != nil {
		return nil, dbError(err, "reconcile ledger")
	}
	defer rows.Close()

	var out []Discrepancy
	for rows.Next() {
		var d Discrepancy
		if err := rows.Scan(&d.Key.ItemID, &d.Key.WarehouseID, &d.Key.BinID, &d.Key.BatchID,
			&d.LedgerQty, &d.LotQty); err != nil {
			return nil, fmt.Errorf("scan discrepancy: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
