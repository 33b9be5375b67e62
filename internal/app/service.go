package app

import (
	"context"

	"warehouse-inventory/internal/core"
)

// Actor is the caller of an application operation, as vouched for by the
// upstream auth layer. WarehouseID is 0 for admins.
type Actor struct {
	UserID      int
	Role        core.Role
	WarehouseID int
}

// IsAdmin reports whether the actor may act on every warehouse.
func (a Actor) IsAdmin() bool { return a.Role == core.RoleAdmin }

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from the inventory workflow. Implementations
// enforce role gates and warehouse scoping, validate requests and publish
// domain events once a write has committed. No display logic of any kind.
type ApplicationService interface {
	// ResolveActor loads the active user behind userID. A non-empty role must
	// match the stored role.
	ResolveActor(ctx context.Context, userID int, role string) (Actor, error)

	// CreateRequisition creates a DRAFT requisition in the actor's warehouse.
	CreateRequisition(ctx context.Context, actor Actor, req CreateRequisitionRequest) (*core.Requisition, error)

	// ApproveRequisition moves a DRAFT requisition to APPROVED. MANAGER or ADMIN only.
	ApproveRequisition(ctx context.Context, actor Actor, id int) (*core.Requisition, error)

	GetRequisition(ctx context.Context, actor Actor, id int) (*core.Requisition, error)
	ListRequisitions(ctx context.Context, actor Actor, q ListQuery) (*RequisitionListResult, error)

	// ConvertRequisition turns an APPROVED requisition into a DRAFT purchase order. ADMIN only.
	ConvertRequisition(ctx context.Context, actor Actor, id int, req ConvertRequisitionRequest) (*core.PurchaseOrder, error)

	GetOrder(ctx context.Context, actor Actor, id int) (*core.PurchaseOrder, error)
	ListOrders(ctx context.Context, actor Actor, q ListQuery) (*OrderListResult, error)

	// UpdateOrderLines edits quantities and prices of a DRAFT purchase order.
	UpdateOrderLines(ctx context.Context, actor Actor, id int, req UpdateOrderLinesRequest) (*core.PurchaseOrder, error)

	// ApproveOrder approves a DRAFT order, creates its receipt and sends it. ADMIN only.
	ApproveOrder(ctx context.Context, actor Actor, id int) (*core.PurchaseOrder, error)

	GetReceipt(ctx context.Context, actor Actor, id int) (*core.Receipt, error)
	ListReceipts(ctx context.Context, actor Actor, q ListQuery) (*ReceiptListResult, error)

	// ReceiveReceipt records the goods that arrived and raises putaway tasks.
	ReceiveReceipt(ctx context.Context, actor Actor, id int, req ReceiveReceiptRequest) (*core.ReceiveResult, error)

	// ListPutawayTasks lists tasks; state is "pending" or "completed" (today).
	ListPutawayTasks(ctx context.Context, actor Actor, q PutawayQuery) (*PutawayListResult, error)

	// CompletePutaway places a task's stock into a bin.
	CompletePutaway(ctx context.Context, actor Actor, id int, req CompletePutawayRequest) (*core.PutawayResult, error)

	// Pick consumes the requested quantity of a SKU oldest lot first.
	Pick(ctx context.Context, actor Actor, req PickStockRequest) (*core.PickResult, error)
	RecentPicks(ctx context.Context, actor Actor, warehouseID, limit int) (*PickListResult, error)

	IssueStock(ctx context.Context, actor Actor, req IssueStockRequest) (*core.MovementResult, error)
	TransferStock(ctx context.Context, actor Actor, req TransferStockRequest) (*core.MovementResult, error)

	StockLevels(ctx context.Context, actor Actor, warehouseID int) (*StockResult, error)
	StockAging(ctx context.Context, actor Actor, warehouseID int) (*StockAgingResult, error)
	ExpiringBatches(ctx context.Context, actor Actor, warehouseID, days int) (*ExpiringResult, error)

	// Reconcile compares ledger balances with live lots. Any discrepancy is a defect.
	Reconcile(ctx context.Context, actor Actor, warehouseID int) (*ReconcileResult, error)

	ListBins(ctx context.Context, actor Actor, warehouseID int) (*BinListResult, error)
	CreateBin(ctx context.Context, actor Actor, req CreateBinRequest) (*core.Bin, error)
	DeactivateBin(ctx context.Context, actor Actor, id int) (*core.Bin, error)

	// EvaluateReorder raises DRAFT requisitions for items at or below their minimum.
	EvaluateReorder(ctx context.Context, actor Actor, warehouseID int) (*core.EvaluateResult, error)
	ReorderSuggestions(ctx context.Context, actor Actor, warehouseID int) (*SuggestionListResult, error)

	// ListSuppliers returns the active suppliers a requisition can be converted against.
	ListSuppliers(ctx context.Context, actor Actor) (*SupplierListResult, error)
	GetItem(ctx context.Context, actor Actor, sku string) (*core.Item, error)

	ListReorderRules(ctx context.Context, actor Actor, warehouseID int) (*RuleListResult, error)
	CreateReorderRule(ctx context.Context, actor Actor, req ReorderRuleRequest) (*core.ReorderRule, error)
	UpdateReorderRule(ctx context.Context, actor Actor, id int, req ReorderRuleRequest) (*core.ReorderRule, error)
	DeactivateReorderRule(ctx context.Context, actor Actor, id int) (*core.ReorderRule, error)
}
