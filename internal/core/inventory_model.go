package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BinStatus is the operational state of a bin. Only ACTIVE bins accept stock.
type BinStatus string

const (
	BinActive      BinStatus = "ACTIVE"
	BinBlocked     BinStatus = "BLOCKED"
	BinMaintenance BinStatus = "MAINTENANCE"
)

// Bin is a storage location with bounded capacity.
// UsedCapacity + AvailableCapacity == MaxCapacity always holds.
type Bin struct {
	ID                int       `json:"id"`
	WarehouseID       int       `json:"warehouse_id"`
	Code              string    `json:"code"`
	MaxCapacity       int64     `json:"max_capacity"`
	UsedCapacity      int64     `json:"used_capacity"`
	AvailableCapacity int64     `json:"available_capacity"`
	Status            BinStatus `json:"status"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// Accepts reports whether the bin can take qty more units right now.
func (b Bin) Accepts(qty int64) bool {
	return b.IsActive && b.Status == BinActive && b.AvailableCapacity >= qty
}

// StockLot is one physical placement of an item in a bin. Lots are consumed
// oldest ReceivedAt first; ID breaks ties.
type StockLot struct {
	ID          int64     `json:"id"`
	ItemID      int       `json:"item_id"`
	WarehouseID int       `json:"warehouse_id"`
	BinID       int       `json:"bin_id"`
	BinCode     string    `json:"bin_code"`
	BatchID     *int      `json:"batch_id,omitempty"`
	Quantity    int64     `json:"quantity"`
	ReceivedAt  time.Time `json:"received_at"`
	ReceiptID   *int      `json:"receipt_id,omitempty"`
}

// PickAllocation is the quantity taken from one lot by a pick, issue or transfer.
type PickAllocation struct {
	LotID    int64  `json:"lot_id"`
	BinID    int    `json:"bin_id"`
	BinCode  string `json:"bin_code"`
	BatchID  *int   `json:"batch_id,omitempty"`
	Quantity int64  `json:"quantity"`
}

// PickRequest asks for quantity units of sku out of a warehouse.
type PickRequest struct {
	SKU         string `json:"sku"`
	Quantity    int64  `json:"quantity"`
	WarehouseID int    `json:"warehouse_id"`
	ActorID     int    `json:"actor_id"`
	Notes       string `json:"notes"`
}

// PickResult lists the lots that satisfied a pick, oldest first.
type PickResult struct {
	ItemID      int              `json:"item_id"`
	SKU         string           `json:"sku"`
	WarehouseID int              `json:"warehouse_id"`
	Quantity    int64            `json:"quantity"`
	Allocations []PickAllocation `json:"allocations,omitempty"`
}

// PickRecord is one pick_history row.
type PickRecord struct {
	ID       int64     `json:"id"`
	ItemID   int       `json:"item_id"`
	SKU      string    `json:"sku"`
	ItemName string    `json:"item_name"`
	BinID    int       `json:"bin_id"`
	BinCode  string    `json:"bin_code"`
	LotID    int64     `json:"lot_id"`
	BatchID  *int      `json:"batch_id,omitempty"`
	Quantity int64     `json:"quantity"`
	PickedBy int       `json:"picked_by"`
	Notes    *string   `json:"notes,omitempty"`
	PickedAt time.Time `json:"picked_at"`
}

// IssueRequest takes stock out of one bin, optionally one batch.
type IssueRequest struct {
	ItemID      int   `json:"item_id"`
	WarehouseID int   `json:"warehouse_id"`
	BinID       int   `json:"bin_id"`
	BatchID     *int  `json:"batch_id,omitempty"`
	Quantity    int64 `json:"quantity"`
	ActorID     int   `json:"actor_id"`
}

// TransferRequest moves stock between two bins of one warehouse.
type TransferRequest struct {
	ItemID      int   `json:"item_id"`
	WarehouseID int   `json:"warehouse_id"`
	FromBinID   int   `json:"from_bin_id"`
	ToBinID     int   `json:"to_bin_id"`
	Quantity    int64 `json:"quantity"`
	ActorID     int   `json:"actor_id"`
}

// MovementResult is returned by IssueStock and TransferStock.
type MovementResult struct {
	ItemID      int              `json:"item_id"`
	WarehouseID int              `json:"warehouse_id"`
	Quantity    int64            `json:"quantity"`
	Allocations []PickAllocation `json:"allocations,omitempty"`
	// ToBinID is set for transfers.
	ToBinID *int `json:"to_bin_id,omitempty"`
}

// PickingService consumes stock under row locks. Every call is all-or-nothing.
type PickingService interface {
	// Pick consumes lots of the SKU across the warehouse oldest first.
	Pick(ctx context.Context, req PickRequest) (*PickResult, error)

	// IssueStock consumes lots from one bin oldest first.
	IssueStock(ctx context.Context, req IssueRequest) (*MovementResult, error)

	// TransferStock moves units between bins, keeping batch and receipt time.
	TransferStock(ctx context.Context, req TransferRequest) (*MovementResult, error)

	// ListRecentPicks returns the latest pick history rows, newest first.
	ListRecentPicks(ctx context.Context, warehouseID, limit int) ([]PickRecord, error)
}

// BinInput holds the fields required to create a bin.
type BinInput struct {
	WarehouseID int    `json:"warehouse_id"`
	Code        string `json:"code"`
	MaxCapacity int64  `json:"max_capacity"`
}

// BinService manages bin records. Capacity columns are only changed by
// putaway, picking and movements.
type BinService interface {
	CreateBin(ctx context.Context, input BinInput) (*Bin, error)
	// DeactivateBin soft-deletes an empty bin.
	DeactivateBin(ctx context.Context, id int) (*Bin, error)
	GetBin(ctx context.Context, id int) (*Bin, error)
	ListBins(ctx context.Context, warehouseID int) ([]Bin, error)
}

// StockLevel aggregates live lots per (item, bin, batch).
type StockLevel struct {
	ItemID    int     `json:"item_id"`
	SKU       string  `json:"sku"`
	ItemName  string  `json:"item_name"`
	BinID     int     `json:"bin_id"`
	BinCode   string  `json:"bin_code"`
	BatchID   *int    `json:"batch_id,omitempty"`
	BatchCode *string `json:"batch_code,omitempty"`
	Quantity  int64   `json:"quantity"`
}

// StockAge is a live lot with its age and catalog value.
type StockAge struct {
	LotID       int64           `json:"lot_id"`
	ItemID      int             `json:"item_id"`
	SKU         string          `json:"sku"`
	ItemName    string          `json:"item_name"`
	WarehouseID int             `json:"warehouse_id"`
	BinCode     string          `json:"bin_code"`
	Quantity    int64           `json:"quantity"`
	AgeDays     int             `json:"age_days"`
	Value       decimal.Decimal `json:"value"`
}

// ExpiringBatch is a batch expiring within the requested window that still
// holds stock.
type ExpiringBatch struct {
	BatchID    int       `json:"batch_id"`
	BatchCode  *string   `json:"batch_code,omitempty"`
	ItemID     int       `json:"item_id"`
	SKU        string    `json:"sku"`
	ItemName   string    `json:"item_name"`
	BinCode    string    `json:"bin_code"`
	ExpiryDate time.Time `json:"expiry_date"`
	DaysLeft   int       `json:"days_left"`
	Quantity   int64     `json:"quantity"`
}

// InventoryService provides unlocked read views over live stock. Results may
// be stale relative to a concurrent write.
type InventoryService interface {
	StockLevels(ctx context.Context, warehouseID int) ([]StockLevel, error)
	StockAging(ctx context.Context, warehouseID int) ([]StockAge, error)
	ExpiringBatches(ctx context.Context, warehouseID, days int) ([]ExpiringBatch, error)
	// OnHand sums live lots of an item in a warehouse.
	OnHand(ctx context.Context, itemID, warehouseID int) (int64, error)
}
