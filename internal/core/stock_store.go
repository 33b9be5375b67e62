package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// Helpers in this file run inside a caller-owned transaction. Lock order
// across the package: putaway task, then bin, then receipt; stock lots before
// bins; several bins always in ascending ID order.

const binColumns = `id, warehouse_id, code, max_capacity, used_capacity, available_capacity, status, is_active, created_at`

func scanBin(row pgx.Row, b *Bin) error {
	return row.Scan(&b.ID, &b.WarehouseID, &b.Code, &b.MaxCapacity, &b.UsedCapacity,
		&b.AvailableCapacity, &b.Status, &b.IsActive, &b.CreatedAt)
}

// lockBinTx locks one bin of a warehouse. It returns nil, nil when the bin
// does not exist in that warehouse.
func lockBinTx(ctx context.Context, tx pgx.Tx, binID, warehouseID int) (*Bin, error) {
	b := &Bin{}
	err := scanBin(tx.QueryRow(ctx,
		"SELECT "+binColumns+" FROM bins WHERE id = $1 AND warehouse_id = $2 FOR UPDATE",
		binID, warehouseID,
	), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError(err, "lock bin")
	}
	return b, nil
}

// lockBinsTx locks several bins in ascending ID order in one statement.
func lockBinsTx(ctx context.Context, tx pgx.Tx, binIDs []int) (map[int]*Bin, error) {
	ids := append([]int(nil), binIDs...)
	sort.Ints(ids)

	rows, err := tx.Query(ctx,
		"SELECT "+binColumns+" FROM bins WHERE id = ANY($1) ORDER BY id FOR UPDATE",
		ids,
	)
	if err != nil {
		return nil, dbError(err, "lock bins")
	}
	defer rows.Close()

	out := make(map[int]*Bin, len(ids))
	for rows.Next() {
		b := &Bin{}
		if err := scanBin(rows, b); err != nil {
			return nil, dbError(err, "scan bin")
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

// adjustBinTx moves delta units into (positive) or out of (negative) a bin's
// used capacity, keeping used + available == max. The bin must already be
// locked by the caller.
func adjustBinTx(ctx context.Context, tx pgx.Tx, b *Bin, delta int64) error {
	if b.UsedCapacity+delta < 0 || b.AvailableCapacity-delta < 0 {
		return capacityExceeded(b.ID, delta, b.AvailableCapacity)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE bins
		SET used_capacity = used_capacity + $2,
		    available_capacity = available_capacity - $2
		WHERE id = $1`,
		b.ID, delta,
	); err != nil {
		return dbError(err, "adjust bin capacity")
	}
	b.UsedCapacity += delta
	b.AvailableCapacity -= delta
	return nil
}

// insertLotTx inserts a stock lot. A zero ReceivedAt means now.
func insertLotTx(ctx context.Context, tx pgx.Tx, l *StockLot) error {
	var receivedAt *time.Time
	if !l.ReceivedAt.IsZero() {
		receivedAt = &l.ReceivedAt
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_lots (item_id, warehouse_id, bin_id, batch_id, quantity, received_at, receipt_id)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), $7)
		RETURNING id, received_at`,
		l.ItemID, l.WarehouseID, l.BinID, l.BatchID, l.Quantity, receivedAt, l.ReceiptID,
	).Scan(&l.ID, &l.ReceivedAt); err != nil {
		return dbError(err, "insert stock lot")
	}
	return nil
}

// lotScope selects which live lots lockLotsTx locks.
type lotScope struct {
	ItemID      int
	WarehouseID int
	BinID       int  // 0 = any bin
	BatchID     *int // nil = any batch
}

// lockLotsTx locks every live lot in scope, oldest first.
func lockLotsTx(ctx context.Context, tx pgx.Tx, scope lotScope) ([]StockLot, error) {
	rows, err := tx.Query(ctx, `
		SELECT sl.id, sl.item_id, sl.warehouse_id, sl.bin_id, b.code, sl.batch_id,
		       sl.quantity, sl.received_at, sl.receipt_id
		FROM stock_lots sl
		JOIN bins b ON b.id = sl.bin_id
		WHERE sl.item_id = $1
		  AND sl.warehouse_id = $2
		  AND sl.quantity > 0
		  AND ($3 = 0 OR sl.bin_id = $3)
		  AND ($4::int IS NULL OR sl.batch_id = $4)
		ORDER BY sl.received_at, sl.id
		FOR UPDATE OF sl`,
		scope.ItemID, scope.WarehouseID, scope.BinID, scope.BatchID,
	)
	if err != nil {
		return nil, dbError(err, "lock stock lots")
	}
	defer rows.Close()

	var lots []StockLot
	for rows.Next() {
		var l StockLot
		if err := rows.Scan(&l.ID, &l.ItemID, &l.WarehouseID, &l.BinID, &l.BinCode, &l.BatchID,
			&l.Quantity, &l.ReceivedAt, &l.ReceiptID); err != nil {
			return nil, dbError(err, "scan stock lot")
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// deductLotTx removes qty from a locked lot.
func deductLotTx(ctx context.Context, tx pgx.Tx, lotID, qty int64) error {
	tag, err := tx.Exec(ctx,
		"UPDATE stock_lots SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2",
		lotID, qty,
	)
	if err != nil {
		return dbError(err, "deduct stock lot")
	}
	if tag.RowsAffected() != 1 {
		return UnexpectedError(nil, "stock lot %d changed while locked", lotID)
	}
	return nil
}

// consumption describes one all-or-nothing FIFO withdrawal.
type consumption struct {
	Scope     lotScope
	SKU       string
	Quantity  int64
	Movement  MovementType
	Reference ReferenceType
	ActorID   int
	// ExtraBins are locked together with the source bins (transfer targets).
	ExtraBins []int
	// Audit, when set, records each allocation before its ledger entry and
	// returns the audit row ID used as the entry's reference. Without it the
	// reference is the lot ID.
	Audit func(ctx context.Context, tx pgx.Tx, a PickAllocation) (int64, error)
}

// consumed is what consumeTx took, with every touched bin still locked.
type consumed struct {
	Allocations []PickAllocation
	Lots        map[int64]StockLot
	Bins        map[int]*Bin
}

// consumeTx locks lots in scope, plans the withdrawal oldest first, locks the
// touched bins in ID order, deducts the lots, releases bin capacity and
// appends one negative ledger entry per touched lot. Any failure leaves the
// transaction to be rolled back by the caller.
func consumeTx(ctx context.Context, tx pgx.Tx, ledger *Ledger, c consumption) (*consumed, error) {
	lots, err := lockLotsTx(ctx, tx, c.Scope)
	if err != nil {
		return nil, err
	}

	plan, err := planFIFO(lots, c.Quantity)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) && ce.Kind == KindStock && c.SKU != "" {
			ce.WithDetail("sku", c.SKU)
		}
		return nil, err
	}

	byID := make(map[int64]StockLot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}

	binSet := make(map[int]bool)
	var binIDs []int
	for _, a := range plan {
		if !binSet[a.BinID] {
			binSet[a.BinID] = true
			binIDs = append(binIDs, a.BinID)
		}
	}
	for _, id := range c.ExtraBins {
		if !binSet[id] {
			binSet[id] = true
			binIDs = append(binIDs, id)
		}
	}

	bins, err := lockBinsTx(ctx, tx, binIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range plan {
		if err := deductLotTx(ctx, tx, a.LotID, a.Quantity); err != nil {
			return nil, err
		}
		b, ok := bins[a.BinID]
		if !ok {
			return nil, UnexpectedError(nil, "bin %d of lot %d vanished", a.BinID, a.LotID)
		}
		if err := adjustBinTx(ctx, tx, b, -a.Quantity); err != nil {
			return nil, err
		}
		refID := a.LotID
		if c.Audit != nil {
			if refID, err = c.Audit(ctx, tx, a); err != nil {
				return nil, err
			}
		}
		if _, err := ledger.AppendTx(ctx, tx, LedgerEntry{
			ItemID:        c.Scope.ItemID,
			WarehouseID:   c.Scope.WarehouseID,
			BinID:         a.BinID,
			BatchID:       a.BatchID,
			Movement:      c.Movement,
			Quantity:      -a.Quantity,
			ReferenceType: c.Reference,
			ReferenceID:   &refID,
			ActorID:       c.ActorID,
		}); err != nil {
			return nil, err
		}
	}

	return &consumed{Allocations: plan, Lots: byID, Bins: bins}, nil
}
