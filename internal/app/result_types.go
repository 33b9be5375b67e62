package app

import "warehouse-inventory/internal/core"

// RequisitionListResult is returned by ListRequisitions.
type RequisitionListResult struct {
	Requisitions []core.Requisition `json:"requisitions"`
	WarehouseID  int                `json:"warehouse_id"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders      []core.PurchaseOrder `json:"orders"`
	WarehouseID int                  `json:"warehouse_id"`
}

// ReceiptListResult is returned by ListReceipts.
type ReceiptListResult struct {
	Receipts    []core.Receipt `json:"receipts"`
	WarehouseID int            `json:"warehouse_id"`
}

// PutawayListResult is returned by ListPutawayTasks.
type PutawayListResult struct {
	Tasks       []core.PutawayTask `json:"tasks"`
	WarehouseID int                `json:"warehouse_id"`
}

// PickListResult is returned by RecentPicks.
type PickListResult struct {
	Picks       []core.PickRecord `json:"picks"`
	WarehouseID int               `json:"warehouse_id"`
}

// StockResult is returned by StockLevels.
type StockResult struct {
	Levels      []core.StockLevel `json:"levels"`
	WarehouseID int               `json:"warehouse_id"`
}

// StockAgingResult is returned by StockAging.
type StockAgingResult struct {
	Lots        []core.StockAge `json:"lots"`
	WarehouseID int             `json:"warehouse_id"`
}

// ExpiringResult is returned by ExpiringBatches.
type ExpiringResult struct {
	Batches     []core.ExpiringBatch `json:"batches"`
	WarehouseID int                  `json:"warehouse_id"`
	Days        int                  `json:"days"`
}

// ReconcileResult is returned by Reconcile. An empty Discrepancies means the
// ledger and the live lots agree.
type ReconcileResult struct {
	Discrepancies []core.Discrepancy `json:"discrepancies"`
	WarehouseID   int                `json:"warehouse_id"`
}

// BinListResult is returned by ListBins.
type BinListResult struct {
	Bins        []core.Bin `json:"bins"`
	WarehouseID int        `json:"warehouse_id"`
}

// SuggestionListResult is returned by ReorderSuggestions.
type SuggestionListResult struct {
	Suggestions []core.ReorderSuggestion `json:"suggestions"`
	WarehouseID int                      `json:"warehouse_id"`
}

// RuleListResult is returned by ListReorderRules.
type RuleListResult struct {
	Rules       []core.ReorderRule `json:"rules"`
	WarehouseID int                `json:"warehouse_id"`
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier `json:"suppliers"`
}
