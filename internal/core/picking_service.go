package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRecentPicks = 20

type pickingService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

// NewPickingService constructs a PickingService backed by PostgreSQL.
func NewPickingService(pool *pgxpool.Pool, ledger *Ledger) PickingService {
	return &pickingService{pool: pool, ledger: ledger}
}

// Pick consumes quantity units of a SKU from the warehouse, oldest lots
// first. Concurrent picks of the same item serialize on the lot row locks;
// a pick that waited re-reads the lots and fails if what is left is short.
func (s *pickingService) Pick(ctx context.Context, req PickRequest) (*PickResult, error) {
	if req.SKU == "" {
		return nil, ValidationError("sku is required")
	}
	if req.Quantity <= 0 {
		return nil, ValidationError("quantity must be positive, got %d", req.Quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var itemID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM items WHERE sku = $1 AND is_active = true", req.SKU,
	).Scan(&itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("item %q not found", req.SKU)
		}
		return nil, dbError(err, "resolve item")
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	got, err := consumeTx(ctx, tx, s.ledger, consumption{
		Scope:     lotScope{ItemID: itemID, WarehouseID: req.WarehouseID},
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		Movement:  MovementOut,
		Reference: RefPick,
		ActorID:   req.ActorID,
		Audit: func(ctx context.Context, tx pgx.Tx, a PickAllocation) (int64, error) {
			var id int64
			if err := tx.QueryRow(ctx, `
				INSERT INTO pick_history (item_id, warehouse_id, bin_id, lot_id, batch_id, quantity, picked_by, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id`,
				itemID, req.WarehouseID, a.BinID, a.LotID, a.BatchID, a.Quantity, req.ActorID, notes,
			).Scan(&id); err != nil {
				return 0, dbError(err, "record pick history")
			}
			return id, nil
		},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit pick")
	}

	return &PickResult{
		ItemID:      itemID,
		SKU:         req.SKU,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Allocations: got.Allocations,
	}, nil
}

// IssueStock consumes stock from one bin, optionally restricted to a batch.
func (s *pickingService) IssueStock(ctx context.Context, req IssueRequest) (*MovementResult, error) {
	if req.ItemID <= 0 || req.BinID <= 0 {
		return nil, ValidationError("item and bin are required")
	}
	if req.Quantity <= 0 {
		return nil, ValidationError("quantity must be positive, got %d", req.Quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	got, err := consumeTx(ctx, tx, s.ledger, consumption{
		Scope: lotScope{
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			BinID:       req.BinID,
			BatchID:     req.BatchID,
		},
		Quantity:  req.Quantity,
		Movement:  MovementOut,
		Reference: RefIssue,
		ActorID:   req.ActorID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit issue")
	}

	return &MovementResult{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Allocations: got.Allocations,
	}, nil
}

// TransferStock moves units from one bin to another in the same warehouse.
// Each source lot taken from becomes a destination lot with the same batch
// and received time, so FIFO age follows the goods.
func (s *pickingService) TransferStock(ctx context.Context, req TransferRequest) (*MovementResult, error) {
	if req.ItemID <= 0 || req.FromBinID <= 0 || req.ToBinID <= 0 {
		return nil, ValidationError("item, source bin and destination bin are required")
	}
	if req.FromBinID == req.ToBinID {
		return nil, ValidationError("source and destination bin are the same (%d)", req.FromBinID)
	}
	if req.Quantity <= 0 {
		return nil, ValidationError("quantity must be positive, got %d", req.Quantity)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	got, err := consumeTx(ctx, tx, s.ledger, consumption{
		Scope: lotScope{
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			BinID:       req.FromBinID,
		},
		Quantity:  req.Quantity,
		Movement:  MovementMove,
		Reference: RefTransfer,
		ActorID:   req.ActorID,
		ExtraBins: []int{req.ToBinID},
	})
	if err != nil {
		return nil, err
	}

	dest, ok := got.Bins[req.ToBinID]
	switch {
	case !ok || dest.WarehouseID != req.WarehouseID:
		return nil, capacityExceeded(req.ToBinID, req.Quantity, 0).WithDetail("reason", "bin not found in warehouse")
	case !dest.Accepts(req.Quantity):
		return nil, capacityExceeded(req.ToBinID, req.Quantity, dest.AvailableCapacity)
	}

	for _, a := range got.Allocations {
		src := got.Lots[a.LotID]
		lot := StockLot{
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			BinID:       dest.ID,
			BatchID:     src.BatchID,
			Quantity:    a.Quantity,
			ReceivedAt:  src.ReceivedAt,
			ReceiptID:   src.ReceiptID,
		}
		if err := insertLotTx(ctx, tx, &lot); err != nil {
			return nil, err
		}
		if err := adjustBinTx(ctx, tx, dest, a.Quantity); err != nil {
			return nil, err
		}
		refID := a.LotID
		if _, err := s.ledger.AppendTx(ctx, tx, LedgerEntry{
			ItemID:        req.ItemID,
			WarehouseID:   req.WarehouseID,
			BinID:         dest.ID,
			BatchID:       src.BatchID,
			Movement:      MovementMove,
			Quantity:      a.Quantity,
			ReferenceType: RefTransfer,
			ReferenceID:   &refID,
			ActorID:       req.ActorID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit transfer")
	}

	to := dest.ID
	return &MovementResult{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Allocations: got.Allocations,
		ToBinID:     &to,
	}, nil
}

// ListRecentPicks returns the latest picks of a warehouse (0 = all).
func (s *pickingService) ListRecentPicks(ctx context.Context, warehouseID, limit int) ([]PickRecord, error) {
	if limit <= 0 {
		limit = defaultRecentPicks
	}
	rows, err := s.pool.Query(ctx, `
		SELECT ph.id, ph.item_id, i.sku, i.name, ph.bin_id, b.code, ph.lot_id, ph.batch_id,
		       ph.quantity, ph.picked_by, ph.notes, ph.picked_at
		FROM pick_history ph
		JOIN items i ON i.id = ph.item_id
		JOIN bins b ON b.id = ph.bin_id
		WHERE ($1 = 0 OR ph.warehouse_id = $1)
		ORDER BY ph.picked_at DESC, ph.id DESC
		LIMIT $2`,
		warehouseID, limit,
	)
	if err != nil {
		return nil, dbError(err, "list recent picks")
	}
	defer rows.Close()

	var out []PickRecord
	for rows.Next() {
		var r PickRecord
		if err := rows.Scan(&r.ID, &r.ItemID, &r.SKU, &r.ItemName, &r.BinID, &r.BinCode, &r.LotID, &r.BatchID,
			&r.Quantity, &r.PickedBy, &r.Notes, &r.PickedAt); err != nil {
			return nil, dbError(err, "scan pick record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
