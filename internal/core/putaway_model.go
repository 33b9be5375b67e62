package core

import (
	"context"
	"time"
)

// PutawayStatus is PENDING until the task is completed into a bin, exactly once.
type PutawayStatus string

const (
	PutawayPending   PutawayStatus = "PENDING"
	PutawayCompleted PutawayStatus = "COMPLETED"
)

// PutawayTask moves one received receipt line into a bin.
type PutawayTask struct {
	ID               int           `json:"id"`
	ReceiptID        int           `json:"receipt_id"`
	ReceiptItemID    int           `json:"receipt_item_id"`
	ItemID           int           `json:"item_id"`
	SKU              string        `json:"sku"`
	BatchID          int           `json:"batch_id"`
	BatchCode        *string       `json:"batch_code,omitempty"`
	WarehouseID      int           `json:"warehouse_id"`
	Quantity         int64         `json:"quantity"`
	SuggestedBinID   *int          `json:"suggested_bin_id,omitempty"`
	SuggestedBinCode *string       `json:"suggested_bin_code,omitempty"`
	SuggestionReason string        `json:"suggestion_reason"`
	ActualBinID      *int          `json:"actual_bin_id,omitempty"`
	ActualBinCode    *string       `json:"actual_bin_code,omitempty"`
	Status           PutawayStatus `json:"status"`
	CompletedBy      *int          `json:"completed_by,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// PutawayResult is returned by CompletePutaway.
type PutawayResult struct {
	Task *PutawayTask `json:"task,omitempty"`
	Lot  StockLot     `json:"lot"`
	Bin  Bin          `json:"bin"`
	// ReceiptCompleted is true when this task was the receipt's last pending one.
	ReceiptCompleted bool `json:"receipt_completed"`
}

// PutawayFilter narrows ListPutawayTasks.
type PutawayFilter struct {
	WarehouseID int           `json:"warehouse_id"` // 0 = all
	Status      PutawayStatus `json:"status"`
	// CompletedToday limits COMPLETED tasks to those finished since midnight.
	CompletedToday bool `json:"completed_today"`
}

// PutawayService places received stock into bins under capacity constraints.
type PutawayService interface {
	// CompletePutaway locks the task then the bin, creates the stock lot,
	// consumes bin capacity, completes the task, appends the IN ledger entry
	// and completes the receipt when nothing is left pending.
	CompletePutaway(ctx context.Context, taskID, binID, actorID int) (*PutawayResult, error)

	GetPutawayTask(ctx context.Context, id int) (*PutawayTask, error)
	ListPutawayTasks(ctx context.Context, filter PutawayFilter) ([]PutawayTask, error)
}
