package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type receivingService struct {
	pool *pgxpool.Pool
}

// NewReceivingService constructs a ReceivingService backed by PostgreSQL.
func NewReceivingService(pool *pgxpool.Pool) ReceivingService {
	return &receivingService{pool: pool}
}

type pendingReceiptLine struct {
	id       int
	itemID   int
	expected int64
}

// ReceiveReceipt records what arrived on a PENDING receipt. Every line gets a
// batch and a PENDING putaway task with a suggested bin. The bin snapshot
// used for suggestions is taken without locks; the real check happens at
// putaway.
func (s *receivingService) ReceiveReceipt(ctx context.Context, receiptID, receivedBy int, lines []ReceivedLineInput) (*ReceiveResult, error) {
	if len(lines) == 0 {
		return nil, ValidationError("receipt must have at least one received line")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var status ReceiptStatus
	var warehouseID int
	if err := tx.QueryRow(ctx,
		"SELECT status, warehouse_id FROM receipts WHERE id = $1 FOR UPDATE", receiptID,
	).Scan(&status, &warehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("receipt %d not found", receiptID)
		}
		return nil, dbError(err, "lock receipt")
	}
	if !status.CanTransitionTo(ReceiptReceived) {
		return nil, StateTransitionError("receipt %d cannot be received: status is %s (must be PENDING)", receiptID, status)
	}

	byItem, err := pendingLinesTx(ctx, tx, receiptID)
	if err != nil {
		return nil, err
	}

	candidates, err := binCandidatesTx(ctx, tx, warehouseID)
	if err != nil {
		return nil, err
	}

	result := &ReceiveResult{}
	seen := make(map[int]bool, len(lines))
	for i, in := range lines {
		line, ok := byItem[in.ItemID]
		if !ok {
			return nil, ValidationError("line %d: item %d is not on receipt %d", i+1, in.ItemID, receiptID).
				WithDetail("item_id", in.ItemID)
		}
		if seen[in.ItemID] {
			return nil, ValidationError("line %d: item %d received twice", i+1, in.ItemID)
		}
		seen[in.ItemID] = true
		if in.Quantity <= 0 {
			return nil, ValidationError("line %d: received quantity must be positive, got %d", i+1, in.Quantity)
		}
		if in.Quantity > line.expected {
			return nil, ValidationError("line %d: received %d exceeds expected %d", i+1, in.Quantity, line.expected).
				WithDetail("item_id", in.ItemID)
		}

		batch, err := insertBatchTx(ctx, tx, in, warehouseID, receiptID)
		if err != nil {
			return nil, err
		}
		result.Batches = append(result.Batches, *batch)

		if _, err := tx.Exec(ctx,
			"UPDATE receipt_items SET quantity_received = $2, batch_id = $3 WHERE id = $1",
			line.id, in.Quantity, batch.ID,
		); err != nil {
			return nil, dbError(err, "update receipt line")
		}

		holding, err := holdsItemTx(ctx, tx, in.ItemID, warehouseID)
		if err != nil {
			return nil, err
		}
		for j := range candidates {
			candidates[j].HoldsItem = holding[candidates[j].ID]
		}
		// Snapshot is not reduced by earlier lines; CompletePutaway re-checks capacity under lock.
		sug := SuggestBin(candidates, in.Quantity)

		var taskID int
		if err := tx.QueryRow(ctx, `
			INSERT INTO putaway_tasks (receipt_id, receipt_item_id, item_id, batch_id, warehouse_id,
			                           quantity, suggested_bin_id, suggestion_reason, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PENDING')
			RETURNING id`,
			receiptID, line.id, in.ItemID, batch.ID, warehouseID, in.Quantity, sug.BinID, sug.Reason,
		).Scan(&taskID); err != nil {
			return nil, dbError(err, "create putaway task")
		}

		task, err := getPutawayTask(ctx, tx, taskID)
		if err != nil {
			return nil, err
		}
		result.Tasks = append(result.Tasks, *task)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE receipts
		SET status = 'RECEIVED', received_by = $2, received_at = NOW()
		WHERE id = $1`,
		receiptID, receivedBy,
	); err != nil {
		return nil, dbError(err, "mark receipt received")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit receipt")
	}

	receipt, err := s.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	result.Receipt = receipt
	return result, nil
}

func pendingLinesTx(ctx context.Context, tx pgx.Tx, receiptID int) (map[int]pendingReceiptLine, error) {
	rows, err := tx.Query(ctx,
		"SELECT id, item_id, quantity_expected FROM receipt_items WHERE receipt_id = $1 ORDER BY id",
		receiptID,
	)
	if err != nil {
		return nil, dbError(err, "fetch receipt lines")
	}
	defer rows.Close()

	out := make(map[int]pendingReceiptLine)
	for rows.Next() {
		var l pendingReceiptLine
		if err := rows.Scan(&l.id, &l.itemID, &l.expected); err != nil {
			return nil, dbError(err, "scan receipt line")
		}
		out[l.itemID] = l
	}
	return out, rows.Err()
}

func insertBatchTx(ctx context.Context, tx pgx.Tx, in ReceivedLineInput, warehouseID, receiptID int) (*Batch, error) {
	var code *string
	if in.BatchCode != "" {
		c := in.BatchCode
		code = &c
	}
	b := &Batch{ItemID: in.ItemID, WarehouseID: warehouseID, ReceiptID: &receiptID, BatchCode: code, ExpiryDate: in.ExpiryDate}
	if err := tx.QueryRow(ctx, `
		INSERT INTO batches (item_id, warehouse_id, receipt_id, batch_code, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		in.ItemID, warehouseID, receiptID, code, in.ExpiryDate,
	).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, dbError(err, "create batch")
	}
	return b, nil
}

// binCandidatesTx snapshots every bin of a warehouse for SuggestBin.
func binCandidatesTx(ctx context.Context, tx pgx.Tx, warehouseID int) ([]BinCandidate, error) {
	rows, err := tx.Query(ctx,
		"SELECT "+binColumns+" FROM bins WHERE warehouse_id = $1 ORDER BY id",
		warehouseID,
	)
	if err != nil {
		return nil, dbError(err, "snapshot bins")
	}
	defer rows.Close()

	var out []BinCandidate
	for rows.Next() {
		var c BinCandidate
		if err := scanBin(rows, &c.Bin); err != nil {
			return nil, dbError(err, "scan bin")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// holdsItemTx returns the bins that already hold a live lot of the item.
func holdsItemTx(ctx context.Context, tx pgx.Tx, itemID, warehouseID int) (map[int]bool, error) {
	rows, err := tx.Query(ctx,
		"SELECT DISTINCT bin_id FROM stock_lots WHERE item_id = $1 AND warehouse_id = $2 AND quantity > 0",
		itemID, warehouseID,
	)
	if err != nil {
		return nil, dbError(err, "find bins holding item")
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, dbError(err, "scan bin id")
		}
		out[id] = true
	}
	return out, rows.Err()
}

// GetReceipt returns a receipt with its lines.
func (s *receivingService) GetReceipt(ctx context.Context, id int) (*Receipt, error) {
	r := &Receipt{}
	if err := scanReceipt(s.pool.QueryRow(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE id = $1", id,
	), r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("receipt %d not found", id)
		}
		return nil, dbError(err, "get receipt")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ri.id, ri.receipt_id, ri.order_item_id, ri.item_id, i.sku, i.name,
		       ri.quantity_expected, ri.quantity_received, ri.batch_id
		FROM receipt_items ri
		JOIN items i ON i.id = ri.item_id
		WHERE ri.receipt_id = $1
		ORDER BY ri.id`,
		id,
	)
	if err != nil {
		return nil, dbError(err, "fetch receipt lines")
	}
	defer rows.Close()

	for rows.Next() {
		var l ReceiptLine
		if err := rows.Scan(&l.ID, &l.ReceiptID, &l.OrderItemID, &l.ItemID, &l.SKU, &l.ItemName,
			&l.QuantityExpected, &l.QuantityReceived, &l.BatchID); err != nil {
			return nil, dbError(err, "scan receipt line")
		}
		r.Lines = append(r.Lines, l)
	}
	return r, rows.Err()
}

const receiptColumns = `id, order_id, warehouse_id, status, received_by, received_at, completed_at, created_at`

func scanReceipt(row pgx.Row, r *Receipt) error {
	return row.Scan(&r.ID, &r.OrderID, &r.WarehouseID, &r.Status, &r.ReceivedBy,
		&r.ReceivedAt, &r.CompletedAt, &r.CreatedAt)
}

// ListReceipts returns receipt headers newest first.
func (s *receivingService) ListReceipts(ctx context.Context, warehouseID int, status ReceiptStatus) ([]Receipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE ($1 = 0 OR warehouse_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`,
		warehouseID, string(status),
	)
	if err != nil {
		return nil, dbError(err, "list receipts")
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var r Receipt
		if err := scanReceipt(rows, &r); err != nil {
			return nil, dbError(err, "scan receipt")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
