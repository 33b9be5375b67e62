package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a purchase order.
// DRAFT → APPROVED → SENT. SENT implies the receipt skeleton exists.
type OrderStatus string

const (
	OrderDraft    OrderStatus = "DRAFT"
	OrderApproved OrderStatus = "APPROVED"
	OrderSent     OrderStatus = "SENT"
)

// CanTransitionTo reports whether the workflow permits s → next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderDraft:
		return next == OrderApproved
	case OrderApproved:
		return next == OrderSent
	}
	return false
}

// PurchaseOrder represents a purchase order header.
type PurchaseOrder struct {
	ID            int             `json:"id"`
	RequisitionID int             `json:"requisition_id"`
	SupplierID    int             `json:"supplier_id"`
	SupplierCode  string          `json:"supplier_code"`
	SupplierName  string          `json:"supplier_name"`
	WarehouseID   int             `json:"warehouse_id"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedBy     int             `json:"created_by"`
	ApprovedBy    *int            `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	// ReceiptID is set once the order has been approved.
	ReceiptID *int                `json:"receipt_id,omitempty"`
	Lines     []PurchaseOrderLine `json:"lines,omitempty"`
}

// PurchaseOrderLine represents a single line on a purchase order.
type PurchaseOrderLine struct {
	ID         int             `json:"id"`
	OrderID    int             `json:"order_id"`
	LineNumber int             `json:"line_number"`
	ItemID     int             `json:"item_id"`
	SKU        string          `json:"sku"`
	ItemName   string          `json:"item_name"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// OrderLineUpdate edits one line of a DRAFT purchase order.
type OrderLineUpdate struct {
	LineID    int             `json:"line_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PurchaseOrderService covers conversion, editing and approval of purchase orders.
type PurchaseOrderService interface {
	// ConvertToOrder creates a DRAFT purchase order from an APPROVED
	// requisition, copying each line's quantity and the item's catalog price,
	// and marks the requisition CONVERTED.
	ConvertToOrder(ctx context.Context, requisitionID, supplierID, actorID int) (*PurchaseOrder, error)

	// UpdateOrderLines edits quantities and prices while the order is DRAFT.
	UpdateOrderLines(ctx context.Context, orderID int, updates []OrderLineUpdate) (*PurchaseOrder, error)

	// ApproveOrder moves a DRAFT order to APPROVED, creates its PENDING
	// receipt with one line per order line, then marks the order SENT. All in
	// one transaction.
	ApproveOrder(ctx context.Context, orderID, approvedBy int) (*PurchaseOrder, error)

	GetOrder(ctx context.Context, id int) (*PurchaseOrder, error)

	// ListOrders filters by warehouse (0 = all) and status ("" = all).
	ListOrders(ctx context.Context, warehouseID int, status OrderStatus) ([]PurchaseOrder, error)
}
