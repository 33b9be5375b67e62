package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type requisitionService struct {
	pool *pgxpool.Pool
}

// NewRequisitionService constructs a RequisitionService backed by PostgreSQL.
func NewRequisitionService(pool *pgxpool.Pool) RequisitionService {
	return &requisitionService{pool: pool}
}

func validateRequisitionLines(lines []RequisitionLineInput) error {
	if len(lines) == 0 {
		return ValidationError("requisition must have at least one line")
	}
	seen := make(map[int]bool, len(lines))
	for i, l := range lines {
		if l.ItemID <= 0 {
			return ValidationError("line %d: item is required", i+1)
		}
		if l.Quantity <= 0 {
			return ValidationError("line %d: quantity must be positive, got %d", i+1, l.Quantity)
		}
		if seen[l.ItemID] {
			return ValidationError("line %d: item %d appears more than once", i+1, l.ItemID)
		}
		seen[l.ItemID] = true
	}
	return nil
}

// CreateRequisition creates a new DRAFT requisition.
func (s *requisitionService) CreateRequisition(ctx context.Context, warehouseID, requestedBy int, lines []RequisitionLineInput, notes string) (*Requisition, error) {
	if err := validateRequisitionLines(lines); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	id, err := createRequisitionTx(ctx, tx, warehouseID, requestedBy, SourceManual, lines, notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit requisition")
	}
	return s.GetRequisition(ctx, id)
}

// createRequisitionTx inserts a DRAFT requisition and its lines. Lines must
// already be validated. Shared with the reorder evaluator.
func createRequisitionTx(ctx context.Context, tx pgx.Tx, warehouseID, requestedBy int, source RequisitionSource, lines []RequisitionLineInput, notes string) (int, error) {
	for i, l := range lines {
		var active bool
		if err := tx.QueryRow(ctx, "SELECT is_active FROM items WHERE id = $1", l.ItemID).Scan(&active); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ValidationError("line %d: item %d not found", i+1, l.ItemID)
			}
			return 0, dbError(err, "resolve item")
		}
		if !active {
			return 0, ValidationError("line %d: item %d is inactive", i+1, l.ItemID)
		}
	}

	var toNotes *string
	if notes != "" {
		toNotes = &notes
	}

	var id int
	if err := tx.QueryRow(ctx, `
		INSERT INTO requisitions (warehouse_id, requested_by, status, source, notes)
		VALUES ($1, $2, 'DRAFT', $3, $4)
		RETURNING id`,
		warehouseID, requestedBy, string(source), toNotes,
	).Scan(&id); err != nil {
		return 0, dbError(err, "insert requisition")
	}

	for i, l := range lines {
		if _, err := tx.Exec(ctx,
			"INSERT INTO requisition_items (requisition_id, item_id, quantity) VALUES ($1, $2, $3)",
			id, l.ItemID, l.Quantity,
		); err != nil {
			return 0, dbError(err, fmt.Sprintf("insert requisition line %d", i+1))
		}
	}
	return id, nil
}

// ApproveRequisition transitions a DRAFT requisition to APPROVED. Approving
// anything but a DRAFT is a state transition error with no side effects.
func (s *requisitionService) ApproveRequisition(ctx context.Context, id, approvedBy int) (*Requisition, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var status RequisitionStatus
	if err := tx.QueryRow(ctx,
		"SELECT status FROM requisitions WHERE id = $1 FOR UPDATE", id,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("requisition %d not found", id)
		}
		return nil, dbError(err, "lock requisition")
	}

	if !status.CanTransitionTo(RequisitionApproved) {
		return nil, StateTransitionError("requisition %d cannot be approved: status is %s (must be DRAFT)", id, status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE requisitions
		SET status = 'APPROVED', approved_by = $2, approved_at = NOW()
		WHERE id = $1`,
		id, approvedBy,
	); err != nil {
		return nil, dbError(err, "approve requisition")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit requisition approval")
	}
	return s.GetRequisition(ctx, id)
}

const requisitionColumns = `
	id, warehouse_id, requested_by, status, source, notes,
	approved_by, approved_at, converted_at, created_at`

func scanRequisition(row pgx.Row, r *Requisition) error {
	return row.Scan(&r.ID, &r.WarehouseID, &r.RequestedBy, &r.Status, &r.Source, &r.Notes,
		&r.ApprovedBy, &r.ApprovedAt, &r.ConvertedAt, &r.CreatedAt)
}

// GetRequisition returns a requisition with its lines.
func (s *requisitionService) GetRequisition(ctx context.Context, id int) (*Requisition, error) {
	return getRequisition(ctx, s.pool, id)
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getRequisition(ctx context.Context, q querier, id int) (*Requisition, error) {
	r := &Requisition{}
	if err := scanRequisition(q.QueryRow(ctx,
		"SELECT "+requisitionColumns+" FROM requisitions WHERE id = $1", id,
	), r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("requisition %d not found", id)
		}
		return nil, dbError(err, "get requisition")
	}

	lines, err := fetchRequisitionLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	r.Lines = lines
	return r, nil
}

func fetchRequisitionLines(ctx context.Context, q querier, id int) ([]RequisitionLine, error) {
	rows, err := q.Query(ctx, `
		SELECT ri.id, ri.requisition_id, ri.item_id, i.sku, i.name, ri.quantity
		FROM requisition_items ri
		JOIN items i ON i.id = ri.item_id
		WHERE ri.requisition_id = $1
		ORDER BY ri.id`,
		id,
	)
	if err != nil {
		return nil, dbError(err, "fetch requisition lines")
	}
	defer rows.Close()

	var lines []RequisitionLine
	for rows.Next() {
		var l RequisitionLine
		if err := rows.Scan(&l.ID, &l.RequisitionID, &l.ItemID, &l.SKU, &l.ItemName, &l.Quantity); err != nil {
			return nil, dbError(err, "scan requisition line")
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ListRequisitions returns requisition headers newest first. Lines are not loaded.
func (s *requisitionService) ListRequisitions(ctx context.Context, warehouseID int, status RequisitionStatus) ([]Requisition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requisitionColumns+`
		FROM requisitions
		WHERE ($1 = 0 OR warehouse_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`,
		warehouseID, string(status),
	)
	if err != nil {
		return nil, dbError(err, "list requisitions")
	}
	defer rows.Close()

	var out []Requisition
	for rows.Next() {
		var r Requisition
		if err := scanRequisition(rows, &r); err != nil {
			return nil, dbError(err, "scan requisition")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
