package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type purchaseOrderService struct {
	pool *pgxpool.Pool
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool) PurchaseOrderService {
	return &purchaseOrderService{pool: pool}
}

// ConvertToOrder turns an APPROVED requisition into a DRAFT purchase order.
func (s *purchaseOrderService) ConvertToOrder(ctx context.Context, requisitionID, supplierID, actorID int) (*PurchaseOrder, error) {
	if supplierID <= 0 {
		return nil, ValidationError("supplier is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var status RequisitionStatus
	var warehouseID int
	if err := tx.QueryRow(ctx,
		"SELECT status, warehouse_id FROM requisitions WHERE id = $1 FOR UPDATE", requisitionID,
	).Scan(&status, &warehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("requisition %d not found", requisitionID)
		}
		return nil, dbError(err, "lock requisition")
	}
	if !status.CanTransitionTo(RequisitionConverted) {
		return nil, StateTransitionError("requisition %d cannot be converted: status is %s (must be APPROVED)", requisitionID, status)
	}

	var supplierActive bool
	if err := tx.QueryRow(ctx, "SELECT is_active FROM suppliers WHERE id = $1", supplierID).Scan(&supplierActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ValidationError("supplier %d not found", supplierID)
		}
		return nil, dbError(err, "resolve supplier")
	}
	if !supplierActive {
		return nil, ValidationError("supplier %d is inactive", supplierID)
	}

	type pricedLine struct {
		itemID    int
		quantity  int64
		unitPrice decimal.Decimal
	}
	rows, err := tx.Query(ctx, `
		SELECT ri.item_id, ri.quantity, i.unit_price
		FROM requisition_items ri
		JOIN items i ON i.id = ri.item_id
		WHERE ri.requisition_id = $1
		ORDER BY ri.id`,
		requisitionID,
	)
	if err != nil {
		return nil, dbError(err, "fetch requisition lines")
	}
	var lines []pricedLine
	for rows.Next() {
		var l pricedLine
		if err := rows.Scan(&l.itemID, &l.quantity, &l.unitPrice); err != nil {
			rows.Close()
			return nil, dbError(err, "scan requisition line")
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "fetch requisition lines")
	}
	if len(lines) == 0 {
		return nil, ValidationError("requisition %d has no lines", requisitionID)
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.unitPrice.Mul(decimal.NewFromInt(l.quantity)))
	}

	var orderID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (requisition_id, supplier_id, warehouse_id, status, total_amount, created_by)
		VALUES ($1, $2, $3, 'DRAFT', $4, $5)
		RETURNING id`,
		requisitionID, supplierID, warehouseID, total, actorID,
	).Scan(&orderID); err != nil {
		return nil, dbError(err, "insert purchase order")
	}

	for i, l := range lines {
		lineTotal := l.unitPrice.Mul(decimal.NewFromInt(l.quantity))
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_items (order_id, line_number, item_id, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, i+1, l.itemID, l.quantity, l.unitPrice, lineTotal,
		); err != nil {
			return nil, dbError(err, "insert purchase order line")
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE requisitions SET status = 'CONVERTED', converted_at = NOW() WHERE id = $1",
		requisitionID,
	); err != nil {
		return nil, dbError(err, "mark requisition converted")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit purchase order")
	}
	return s.GetOrder(ctx, orderID)
}

// UpdateOrderLines edits lines of a DRAFT order and recomputes its total.
func (s *purchaseOrderService) UpdateOrderLines(ctx context.Context, orderID int, updates []OrderLineUpdate) (*PurchaseOrder, error) {
	if len(updates) == 0 {
		return nil, ValidationError("no order lines to update")
	}
	for i, u := range updates {
		if u.Quantity <= 0 {
			return nil, ValidationError("update %d: quantity must be positive, got %d", i+1, u.Quantity)
		}
		if u.UnitPrice.IsNegative() {
			return nil, ValidationError("update %d: unit price must not be negative", i+1)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if status != OrderDraft {
		return nil, StateTransitionError("purchase order %d cannot be edited: status is %s (must be DRAFT)", orderID, status)
	}

	for _, u := range updates {
		tag, err := tx.Exec(ctx, `
			UPDATE purchase_order_items
			SET quantity = $3, unit_price = $4, line_total = $4 * $3
			WHERE id = $1 AND order_id = $2`,
			u.LineID, orderID, u.Quantity, u.UnitPrice,
		)
		if err != nil {
			return nil, dbError(err, "update purchase order line")
		}
		if tag.RowsAffected() == 0 {
			return nil, ValidationError("line %d is not on purchase order %d", u.LineID, orderID)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET total_amount = (SELECT COALESCE(SUM(line_total), 0) FROM purchase_order_items WHERE order_id = $1)
		WHERE id = $1`,
		orderID,
	); err != nil {
		return nil, dbError(err, "recompute order total")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit order lines")
	}
	return s.GetOrder(ctx, orderID)
}

// ApproveOrder approves a DRAFT order, creates its PENDING receipt with one
// line per order line and marks the order SENT.
func (s *purchaseOrderService) ApproveOrder(ctx context.Context, orderID, approvedBy int) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	status, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if !status.CanTransitionTo(OrderApproved) {
		return nil, StateTransitionError("purchase order %d cannot be approved: status is %s (must be DRAFT)", orderID, status)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = 'APPROVED', approved_by = $2, approved_at = NOW()
		WHERE id = $1`,
		orderID, approvedBy,
	); err != nil {
		return nil, dbError(err, "approve purchase order")
	}

	var receiptID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO receipts (order_id, warehouse_id, status)
		SELECT id, warehouse_id, 'PENDING' FROM purchase_orders WHERE id = $1
		RETURNING id`,
		orderID,
	).Scan(&receiptID); err != nil {
		return nil, dbError(err, "create receipt")
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO receipt_items (receipt_id, order_item_id, item_id, quantity_expected)
		SELECT $1, id, item_id, quantity
		FROM purchase_order_items
		WHERE order_id = $2
		ORDER BY line_number`,
		receiptID, orderID,
	)
	if err != nil {
		return nil, dbError(err, "create receipt lines")
	}
	if tag.RowsAffected() == 0 {
		return nil, ValidationError("purchase order %d has no lines", orderID)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchase_orders SET status = 'SENT', sent_at = NOW() WHERE id = $1",
		orderID,
	); err != nil {
		return nil, dbError(err, "mark purchase order sent")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit order approval")
	}
	return s.GetOrder(ctx, orderID)
}

func lockOrderTx(ctx context.Context, tx pgx.Tx, orderID int) (OrderStatus, error) {
	var status OrderStatus
	if err := tx.QueryRow(ctx,
		"SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE", orderID,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", NotFoundError("purchase order %d not found", orderID)
		}
		return "", dbError(err, "lock purchase order")
	}
	return status, nil
}

const orderSelect = `
	SELECT po.id, po.requisition_id, po.supplier_id, s.code, s.name, po.warehouse_id, po.status,
	       po.total_amount, po.created_by, po.approved_by, po.approved_at, po.sent_at, po.created_at, r.id
	FROM purchase_orders po
	JOIN suppliers s ON s.id = po.supplier_id
	LEFT JOIN receipts r ON r.order_id = po.id`

func scanOrder(row pgx.Row, o *PurchaseOrder) error {
	return row.Scan(&o.ID, &o.RequisitionID, &o.SupplierID, &o.SupplierCode, &o.SupplierName,
		&o.WarehouseID, &o.Status, &o.TotalAmount, &o.CreatedBy, &o.ApprovedBy, &o.ApprovedAt,
		&o.SentAt, &o.CreatedAt, &o.ReceiptID)
}

// GetOrder returns a purchase order with its lines.
func (s *purchaseOrderService) GetOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	o := &PurchaseOrder{}
	if err := scanOrder(s.pool.QueryRow(ctx, orderSelect+" WHERE po.id = $1", id), o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("purchase order %d not found", id)
		}
		return nil, dbError(err, "get purchase order")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT poi.id, poi.order_id, poi.line_number, poi.item_id, i.sku, i.name,
		       poi.quantity, poi.unit_price, poi.line_total
		FROM purchase_order_items poi
		JOIN items i ON i.id = poi.item_id
		WHERE poi.order_id = $1
		ORDER BY poi.line_number`,
		id,
	)
	if err != nil {
		return nil, dbError(err, "fetch purchase order lines")
	}
	defer rows.Close()

	for rows.Next() {
		var l PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ItemID, &l.SKU, &l.ItemName,
			&l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, dbError(err, "scan purchase order line")
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// ListOrders returns order headers newest first.
func (s *purchaseOrderService) ListOrders(ctx context.Context, warehouseID int, status OrderStatus) ([]PurchaseOrder, error) {
	rows, err := s.pool.Query(ctx, orderSelect+`
		WHERE ($1 = 0 OR po.warehouse_id = $1)
		  AND ($2 = '' OR po.status = $2)
		ORDER BY po.created_at DESC, po.id DESC`,
		warehouseID, string(status),
	)
	if err != nil {
		return nil, dbError(err, "list purchase orders")
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var o PurchaseOrder
		if err := scanOrder(rows, &o); err != nil {
			return nil, dbError(err, "scan purchase order")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
