package core

import (
	"context"
	"time"
)

// ReceiptStatus is the lifecycle state of a goods receipt note.
// PENDING → RECEIVED → COMPLETED. COMPLETED is set by putaway once no
// task for the receipt is still PENDING.
type ReceiptStatus string

const (
	ReceiptPending   ReceiptStatus = "PENDING"
	ReceiptReceived  ReceiptStatus = "RECEIVED"
	ReceiptCompleted ReceiptStatus = "COMPLETED"
)

// CanTransitionTo reports whether the workflow permits s → next.
func (s ReceiptStatus) CanTransitionTo(next ReceiptStatus) bool {
	switch s {
	case ReceiptPending:
		return next == ReceiptReceived
	case ReceiptReceived:
		return next == ReceiptCompleted
	}
	return false
}

// Receipt (GRN) records goods arriving against a purchase order.
type Receipt struct {
	ID          int           `json:"id"`
	OrderID     int           `json:"order_id"`
	WarehouseID int           `json:"warehouse_id"`
	Status      ReceiptStatus `json:"status"`
	ReceivedBy  *int          `json:"received_by,omitempty"`
	ReceivedAt  *time.Time    `json:"received_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Lines       []ReceiptLine `json:"lines,omitempty"`
}

// ReceiptLine mirrors one purchase order line.
type ReceiptLine struct {
	ID               int    `json:"id"`
	ReceiptID        int    `json:"receipt_id"`
	OrderItemID      int    `json:"order_item_id"`
	ItemID           int    `json:"item_id"`
	SKU              string `json:"sku"`
	ItemName         string `json:"item_name"`
	QuantityExpected int64  `json:"quantity_expected"`
	QuantityReceived int64  `json:"quantity_received"`
	BatchID          *int   `json:"batch_id,omitempty"`
}

// Batch groups units received together on one receipt line.
type Batch struct {
	ID          int        `json:"id"`
	ItemID      int        `json:"item_id"`
	WarehouseID int        `json:"warehouse_id"`
	ReceiptID   *int       `json:"receipt_id,omitempty"`
	BatchCode   *string    `json:"batch_code,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ReceivedLineInput is what arrived for one item on the receipt.
type ReceivedLineInput struct {
	ItemID     int        `json:"item_id"`
	Quantity   int64      `json:"quantity"`
	BatchCode  string     `json:"batch_code"` // optional
	ExpiryDate *time.Time `json:"expiry_date,omitempty"` // optional
}

// ReceivingService turns a PENDING receipt into batches and putaway tasks.
type ReceivingService interface {
	// ReceiveReceipt processes every line in one transaction: any failing
	// line rolls back the batches, line updates and tasks of the others.
	ReceiveReceipt(ctx context.Context, receiptID, receivedBy int, lines []ReceivedLineInput) (*ReceiveResult, error)

	GetReceipt(ctx context.Context, id int) (*Receipt, error)

	// ListReceipts filters by warehouse (0 = all) and status ("" = all).
	ListReceipts(ctx context.Context, warehouseID int, status ReceiptStatus) ([]Receipt, error)
}

// ReceiveResult is returned by ReceiveReceipt.
type ReceiveResult struct {
	Receipt *Receipt      `json:"receipt,omitempty"`
	Batches []Batch       `json:"batches,omitempty"`
	Tasks   []PutawayTask `json:"tasks,omitempty"`
}
