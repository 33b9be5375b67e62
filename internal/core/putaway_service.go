package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type putawayService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

// NewPutawayService constructs a PutawayService backed by PostgreSQL.
func NewPutawayService(pool *pgxpool.Pool, ledger *Ledger) PutawayService {
	return &putawayService{pool: pool, ledger: ledger}
}

// CompletePutaway places a pending task's quantity into a bin. Two
// completions racing for the same bin serialize on the bin row lock, so the
// second sees the capacity the first consumed.
func (s *putawayService) CompletePutaway(ctx context.Context, taskID, binID, actorID int) (*PutawayResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var task struct {
		receiptID   int
		itemID      int
		batchID     int
		warehouseID int
		quantity    int64
		status      PutawayStatus
	}
	if err := tx.QueryRow(ctx, `
		SELECT receipt_id, item_id, batch_id, warehouse_id, quantity, status
		FROM putaway_tasks
		WHERE id = $1
		FOR UPDATE`,
		taskID,
	).Scan(&task.receiptID, &task.itemID, &task.batchID, &task.warehouseID, &task.quantity, &task.status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("putaway task %d not found", taskID)
		}
		return nil, dbError(err, "lock putaway task")
	}
	if task.status != PutawayPending {
		return nil, (&Error{
			Kind:    ErrNotFoundOrAlreadyCompleted.Kind,
			Message: ErrNotFoundOrAlreadyCompleted.Message,
		}).WithDetail("task_id", taskID).WithDetail("status", string(task.status))
	}

	bin, err := lockBinTx(ctx, tx, binID, task.warehouseID)
	if err != nil {
		return nil, err
	}
	switch {
	case bin == nil:
		return nil, capacityExceeded(binID, task.quantity, 0).WithDetail("reason", "bin not found in warehouse")
	case !bin.IsActive || bin.Status != BinActive:
		return nil, capacityExceeded(binID, task.quantity, 0).WithDetail("reason", "bin is not active")
	case !bin.Accepts(task.quantity):
		return nil, capacityExceeded(binID, task.quantity, bin.AvailableCapacity)
	}

	receiptID := task.receiptID
	batchID := task.batchID
	lot := StockLot{
		ItemID:      task.itemID,
		WarehouseID: task.warehouseID,
		BinID:       bin.ID,
		BinCode:     bin.Code,
		BatchID:     &batchID,
		Quantity:    task.quantity,
		ReceiptID:   &receiptID,
	}
	if err := insertLotTx(ctx, tx, &lot); err != nil {
		return nil, err
	}

	if err := adjustBinTx(ctx, tx, bin, task.quantity); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE putaway_tasks
		SET status = 'COMPLETED', actual_bin_id = $2, completed_by = $3, completed_at = NOW()
		WHERE id = $1`,
		taskID, bin.ID, actorID,
	); err != nil {
		return nil, dbError(err, "complete putaway task")
	}

	refID := int64(receiptID)
	if _, err := s.ledger.AppendTx(ctx, tx, LedgerEntry{
		ItemID:        task.itemID,
		WarehouseID:   task.warehouseID,
		BinID:         bin.ID,
		BatchID:       &batchID,
		Movement:      MovementIn,
		Quantity:      task.quantity,
		ReferenceType: RefGRN,
		ReferenceID:   &refID,
		ActorID:       actorID,
	}); err != nil {
		return nil, err
	}

	// The receipt row is locked last so concurrent completions of its final
	// tasks serialize here, and the later one counts the earlier as done.
	if _, err := tx.Exec(ctx, "SELECT 1 FROM receipts WHERE id = $1 FOR UPDATE", receiptID); err != nil {
		return nil, dbError(err, "lock receipt")
	}

	var pending int
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM putaway_tasks WHERE receipt_id = $1 AND status = 'PENDING'",
		receiptID,
	).Scan(&pending); err != nil {
		return nil, dbError(err, "count pending putaway tasks")
	}

	completed := false
	if pending == 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE receipts
			SET status = 'COMPLETED', completed_at = NOW()
			WHERE id = $1 AND status = 'RECEIVED'`,
			receiptID,
		)
		if err != nil {
			return nil, dbError(err, "complete receipt")
		}
		completed = tag.RowsAffected() == 1
	}

	t, err := getPutawayTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit putaway")
	}

	return &PutawayResult{Task: t, Lot: lot, Bin: *bin, ReceiptCompleted: completed}, nil
}

const putawaySelect = `
	SELECT pt.id, pt.receipt_id, pt.receipt_item_id, pt.item_id, i.sku, pt.batch_id, b.batch_code,
	       pt.warehouse_id, pt.quantity, pt.suggested_bin_id, sb.code, pt.suggestion_reason,
	       pt.actual_bin_id, ab.code, pt.status, pt.completed_by, pt.completed_at, pt.created_at
	FROM putaway_tasks pt
	JOIN items i ON i.id = pt.item_id
	JOIN batches b ON b.id = pt.batch_id
	LEFT JOIN bins sb ON sb.id = pt.suggested_bin_id
	LEFT JOIN bins ab ON ab.id = pt.actual_bin_id`

func scanPutawayTask(row pgx.Row, t *PutawayTask) error {
	return row.Scan(&t.ID, &t.ReceiptID, &t.ReceiptItemID, &t.ItemID, &t.SKU, &t.BatchID, &t.BatchCode,
		&t.WarehouseID, &t.Quantity, &t.SuggestedBinID, &t.SuggestedBinCode, &t.SuggestionReason,
		&t.ActualBinID, &t.ActualBinCode, &t.Status, &t.CompletedBy, &t.CompletedAt, &t.CreatedAt)
}

func getPutawayTask(ctx context.Context, q querier, id int) (*PutawayTask, error) {
	t := &PutawayTask{}
	if err := scanPutawayTask(q.QueryRow(ctx, putawaySelect+" WHERE pt.id = $1", id), t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("putaway task %d not found", id)
		}
		return nil, dbError(err, "get putaway task")
	}
	return t, nil
}

func (s *putawayService) GetPutawayTask(ctx context.Context, id int) (*PutawayTask, error) {
	return getPutawayTask(ctx, s.pool, id)
}

// ListPutawayTasks returns pending tasks oldest first, or completed tasks
// newest first.
func (s *putawayService) ListPutawayTasks(ctx context.Context, f PutawayFilter) ([]PutawayTask, error) {
	var since *time.Time
	if f.CompletedToday {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		since = &midnight
	}

	order := "pt.created_at, pt.id"
	if f.Status == PutawayCompleted {
		order = "pt.completed_at DESC, pt.id DESC"
	}

	rows, err := s.pool.Query(ctx, putawaySelect+`
		WHERE ($1 = 0 OR pt.warehouse_id = $1)
		  AND ($2 = '' OR pt.status = $2)
		  AND ($3::timestamptz IS NULL OR pt.completed_at >= $3)
		ORDER BY `+order,
		f.WarehouseID, string(f.Status), since,
	)
	if err != nil {
		return nil, dbError(err, "list putaway tasks")
	}
	defer rows.Close()

	var out []PutawayTask
	for rows.Next() {
		var t PutawayTask
		if err := scanPutawayTask(rows, &t); err != nil {
			return nil, dbError(err, "scan putaway task")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
