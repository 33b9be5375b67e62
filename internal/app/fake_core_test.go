package app

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"warehouse-inventory/internal/core"
	"warehouse-inventory/internal/events"
)

// fakeCore implements every core service the application layer calls, backed
// by maps. calls records the core methods reached, so tests can assert that
// a rejected request never touched the workflow.
type fakeCore struct {
	mu    sync.Mutex
	calls []string

	users        map[int]*core.User
	requisitions map[int]*core.Requisition
	orders       map[int]*core.PurchaseOrder
	receipts     map[int]*core.Receipt
	tasks        map[int]*core.PutawayTask
	bins         map[int]*core.Bin
	rules        map[int]*core.ReorderRule

	receiptDone bool
	pickErr     error
	nextID      int
}

func newFakeCore() *fakeCore {
	wh1, wh2 := 1, 2
	return &fakeCore{
		users: map[int]*core.User{
			1: {ID: 1, Username: "system", Role: core.RoleAdmin, IsActive: true},
			2: {ID: 2, Username: "maria", Role: core.RoleManager, WarehouseID: &wh1, IsActive: true},
			3: {ID: 3, Username: "sam", Role: core.RoleStaff, WarehouseID: &wh1, IsActive: true},
			4: {ID: 4, Username: "otto", Role: core.RoleStaff, WarehouseID: &wh2, IsActive: true},
			5: {ID: 5, Username: "floating", Role: core.RoleStaff, IsActive: true},
		},
		requisitions: map[int]*core.Requisition{
			10: {ID: 10, WarehouseID: 1, Status: core.RequisitionDraft},
			11: {ID: 11, WarehouseID: 2, Status: core.RequisitionDraft},
			12: {ID: 12, WarehouseID: 1, Status: core.RequisitionApproved},
		},
		orders: map[int]*core.PurchaseOrder{
			20: {ID: 20, WarehouseID: 1, Status: core.OrderDraft},
		},
		receipts: map[int]*core.Receipt{
			30: {ID: 30, WarehouseID: 1, Status: core.ReceiptPending},
		},
		tasks: map[int]*core.PutawayTask{
			40: {ID: 40, ReceiptID: 30, ItemID: 7, WarehouseID: 1, Quantity: 12, Status: core.PutawayPending},
			41: {ID: 41, ReceiptID: 31, ItemID: 7, WarehouseID: 2, Quantity: 5, Status: core.PutawayPending},
		},
		bins: map[int]*core.Bin{
			50: {ID: 50, WarehouseID: 1, Code: "A-01", MaxCapacity: 100, AvailableCapacity: 100, Status: core.BinActive, IsActive: true},
		},
		rules: map[int]*core.ReorderRule{
			60: {ID: 60, ItemID: 7, WarehouseID: 1, MinQty: 10, MaxQty: 100, ReorderQty: 40, IsActive: true},
		},
		nextID: 100,
	}
}

func (f *fakeCore) services() Services {
	return Services{
		Requisitions: f, Orders: f, Receiving: f, Putaway: f, Picking: f,
		Bins: f, Inventory: f, Reorder: f, Users: f, Catalog: f, Ledger: f,
	}
}

func (f *fakeCore) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeCore) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

// UserService

func (f *fakeCore) GetByID(_ context.Context, id int) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.NotFoundError("user %d not found", id)
	}
	return u, nil
}

func (f *fakeCore) GetByUsername(context.Context, string) (*core.User, error) {
	return nil, core.NotFoundError("not found")
}

// RequisitionService

func (f *fakeCore) CreateRequisition(_ context.Context, wh, by int, lines []core.RequisitionLineInput, notes string) (*core.Requisition, error) {
	f.record("CreateRequisition")
	f.nextID++
	pr := &core.Requisition{ID: f.nextID, WarehouseID: wh, RequestedBy: by, Status: core.RequisitionDraft, Source: core.SourceManual}
	for _, l := range lines {
		pr.Lines = append(pr.Lines, core.RequisitionLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	f.requisitions[pr.ID] = pr
	return pr, nil
}

func (f *fakeCore) ApproveRequisition(_ context.Context, id, by int) (*core.Requisition, error) {
	f.record("ApproveRequisition")
	pr := f.requisitions[id]
	pr.Status = core.RequisitionApproved
	pr.ApprovedBy = &by
	return pr, nil
}

func (f *fakeCore) GetRequisition(_ context.Context, id int) (*core.Requisition, error) {
	pr, ok := f.requisitions[id]
	if !ok {
		return nil, core.NotFoundError("requisition %d not found", id)
	}
	return pr, nil
}

func (f *fakeCore) ListRequisitions(_ context.Context, wh int, status core.RequisitionStatus) ([]core.Requisition, error) {
	f.record("ListRequisitions")
	var out []core.Requisition
	for _, pr := range f.requisitions {
		if (wh == 0 || pr.WarehouseID == wh) && (status == "" || pr.Status == status) {
			out = append(out, *pr)
		}
	}
	return out, nil
}

// PurchaseOrderService

func (f *fakeCore) ConvertToOrder(_ context.Context, reqID, supplierID, by int) (*core.PurchaseOrder, error) {
	f.record("ConvertToOrder")
	pr := f.requisitions[reqID]
	f.nextID++
	po := &core.PurchaseOrder{ID: f.nextID, RequisitionID: reqID, SupplierID: supplierID, WarehouseID: pr.WarehouseID, Status: core.OrderDraft, CreatedBy: by}
	f.orders[po.ID] = po
	return po, nil
}

func (f *fakeCore) UpdateOrderLines(_ context.Context, id int, updates []core.OrderLineUpdate) (*core.PurchaseOrder, error) {
	f.record("UpdateOrderLines")
	po := f.orders[id]
	total := decimal.Zero
	for _, u := range updates {
		total = total.Add(u.UnitPrice.Mul(decimal.NewFromInt(u.Quantity)))
	}
	po.TotalAmount = total
	return po, nil
}

func (f *fakeCore) ApproveOrder(_ context.Context, id, by int) (*core.PurchaseOrder, error) {
	f.record("ApproveOrder")
	po := f.orders[id]
	receipt := 30
	po.Status, po.ApprovedBy, po.ReceiptID = core.OrderSent, &by, &receipt
	return po, nil
}

func (f *fakeCore) GetOrder(_ context.Context, id int) (*core.PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return nil, core.NotFoundError("purchase order %d not found", id)
	}
	return po, nil
}

func (f *fakeCore) ListOrders(context.Context, int, core.OrderStatus) ([]core.PurchaseOrder, error) {
	f.record("ListOrders")
	return nil, nil
}

// ReceivingService

func (f *fakeCore) ReceiveReceipt(_ context.Context, id, by int, lines []core.ReceivedLineInput) (*core.ReceiveResult, error) {
	f.record("ReceiveReceipt")
	grn := f.receipts[id]
	grn.Status, grn.ReceivedBy = core.ReceiptReceived, &by
	res := &core.ReceiveResult{Receipt: grn}
	for _, l := range lines {
		f.nextID++
		res.Tasks = append(res.Tasks, core.PutawayTask{ID: f.nextID, ReceiptID: id, ItemID: l.ItemID, Quantity: l.Quantity})
		res.Batches = append(res.Batches, core.Batch{ID: f.nextID, ItemID: l.ItemID, ExpiryDate: l.ExpiryDate})
	}
	return res, nil
}

func (f *fakeCore) GetReceipt(_ context.Context, id int) (*core.Receipt, error) {
	grn, ok := f.receipts[id]
	if !ok {
		return nil, core.NotFoundError("receipt %d not found", id)
	}
	return grn, nil
}

func (f *fakeCore) ListReceipts(context.Context, int, core.ReceiptStatus) ([]core.Receipt, error) {
	f.record("ListReceipts")
	return nil, nil
}

// PutawayService

func (f *fakeCore) CompletePutaway(_ context.Context, taskID, binID, by int) (*core.PutawayResult, error) {
	f.record("CompletePutaway")
	task := f.tasks[taskID]
	task.Status, task.ActualBinID, task.CompletedBy = core.PutawayCompleted, &binID, &by
	bin := *f.bins[binID]
	return &core.PutawayResult{
		Task:             task,
		Lot:              core.StockLot{ID: 1, ItemID: task.ItemID, BinID: binID, Quantity: task.Quantity},
		Bin:              bin,
		ReceiptCompleted: f.receiptDone,
	}, nil
}

func (f *fakeCore) GetPutawayTask(_ context.Context, id int) (*core.PutawayTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, core.NotFoundError("putaway task %d not found", id)
	}
	return task, nil
}

func (f *fakeCore) ListPutawayTasks(_ context.Context, filter core.PutawayFilter) ([]core.PutawayTask, error) {
	f.record("ListPutawayTasks:" + string(filter.Status))
	return nil, nil
}

// PickingService

func (f *fakeCore) Pick(_ context.Context, req core.PickRequest) (*core.PickResult, error) {
	f.record("Pick")
	if f.pickErr != nil {
		return nil, f.pickErr
	}
	return &core.PickResult{ItemID: 7, SKU: req.SKU, WarehouseID: req.WarehouseID, Quantity: req.Quantity,
		Allocations: []core.PickAllocation{{LotID: 1, BinID: 50, BinCode: "A-01", Quantity: req.Quantity}}}, nil
}

func (f *fakeCore) IssueStock(_ context.Context, req core.IssueRequest) (*core.MovementResult, error) {
	f.record("IssueStock")
	return &core.MovementResult{ItemID: req.ItemID, WarehouseID: req.WarehouseID, Quantity: req.Quantity}, nil
}

func (f *fakeCore) TransferStock(_ context.Context, req core.TransferRequest) (*core.MovementResult, error) {
	f.record("TransferStock")
	to := req.ToBinID
	return &core.MovementResult{ItemID: req.ItemID, WarehouseID: req.WarehouseID, Quantity: req.Quantity, ToBinID: &to}, nil
}

func (f *fakeCore) ListRecentPicks(context.Context, int, int) ([]core.PickRecord, error) {
	f.record("ListRecentPicks")
	return nil, nil
}

// BinService

func (f *fakeCore) CreateBin(_ context.Context, in core.BinInput) (*core.Bin, error) {
	f.record("CreateBin")
	f.nextID++
	b := &core.Bin{ID: f.nextID, WarehouseID: in.WarehouseID, Code: in.Code, MaxCapacity: in.MaxCapacity, AvailableCapacity: in.MaxCapacity, Status: core.BinActive, IsActive: true}
	f.bins[b.ID] = b
	return b, nil
}

func (f *fakeCore) DeactivateBin(_ context.Context, id int) (*core.Bin, error) {
	f.record("DeactivateBin")
	b := f.bins[id]
	b.IsActive = false
	return b, nil
}

func (f *fakeCore) GetBin(_ context.Context, id int) (*core.Bin, error) {
	b, ok := f.bins[id]
	if !ok {
		return nil, core.NotFoundError("bin %d not found", id)
	}
	return b, nil
}

func (f *fakeCore) ListBins(context.Context, int) ([]core.Bin, error) {
	f.record("ListBins")
	return nil, nil
}

// InventoryService

func (f *fakeCore) StockLevels(context.Context, int) ([]core.StockLevel, error) {
	f.record("StockLevels")
	return []core.StockLevel{{ItemID: 7, SKU: "SKU-7", BinID: 50, BinCode: "A-01", Quantity: 12}}, nil
}

func (f *fakeCore) StockAging(context.Context, int) ([]core.StockAge, error) {
	f.record("StockAging")
	return nil, nil
}

func (f *fakeCore) ExpiringBatches(context.Context, int, int) ([]core.ExpiringBatch, error) {
	f.record("ExpiringBatches")
	return nil, nil
}

func (f *fakeCore) OnHand(context.Context, int, int) (int64, error) { return 0, nil }

// ReorderService

func (f *fakeCore) Evaluate(_ context.Context, wh int) (*core.EvaluateResult, error) {
	f.record("Evaluate")
	return &core.EvaluateResult{WarehouseID: wh, RulesChecked: 1, Requisitions: []core.Requisition{
		{ID: 90, WarehouseID: wh, Status: core.RequisitionDraft, Source: core.SourceReorder},
	}}, nil
}

func (f *fakeCore) Suggestions(context.Context, int) ([]core.ReorderSuggestion, error) {
	f.record("Suggestions")
	return nil, nil
}

func (f *fakeCore) CreateRule(_ context.Context, in core.ReorderRuleInput) (*core.ReorderRule, error) {
	f.record("CreateRule")
	f.nextID++
	r := &core.ReorderRule{ID: f.nextID, ItemID: in.ItemID, WarehouseID: in.WarehouseID, MinQty: in.MinQty, MaxQty: in.MaxQty, ReorderQty: in.ReorderQty, IsActive: true}
	f.rules[r.ID] = r
	return r, nil
}

func (f *fakeCore) UpdateRule(_ context.Context, id int, in core.ReorderRuleInput) (*core.ReorderRule, error) {
	f.record("UpdateRule")
	r := f.rules[id]
	r.MinQty, r.MaxQty, r.ReorderQty = in.MinQty, in.MaxQty, in.ReorderQty
	return r, nil
}

func (f *fakeCore) DeactivateRule(_ context.Context, id int) (*core.ReorderRule, error) {
	f.record("DeactivateRule")
	r := f.rules[id]
	r.IsActive = false
	return r, nil
}

func (f *fakeCore) GetRule(_ context.Context, id int) (*core.ReorderRule, error) {
	r, ok := f.rules[id]
	if !ok {
		return nil, core.NotFoundError("reorder rule %d not found", id)
	}
	return r, nil
}

func (f *fakeCore) ListRules(context.Context, int) ([]core.ReorderRule, error) {
	f.record("ListRules")
	return nil, nil
}

// CatalogService

func (f *fakeCore) GetSupplier(_ context.Context, id int) (*core.Supplier, error) {
	if id != 1 {
		return nil, core.NotFoundError("supplier %d not found", id)
	}
	return &core.Supplier{ID: 1, Code: "SUP1", Name: "Acme Supplies", IsActive: true}, nil
}

func (f *fakeCore) ListSuppliers(context.Context) ([]core.Supplier, error) {
	f.record("ListSuppliers")
	return []core.Supplier{{ID: 1, Code: "SUP1", Name: "Acme Supplies", IsActive: true}}, nil
}

func (f *fakeCore) GetItemBySKU(_ context.Context, sku string) (*core.Item, error) {
	f.record("GetItemBySKU:" + sku)
	if sku != "SKU-7" {
		return nil, core.NotFoundError("item %q not found", sku)
	}
	return &core.Item{ID: 7, SKU: sku, Name: "Widget", UnitPrice: decimal.RequireFromString("2.50"), IsActive: true}, nil
}

// Reconciler

func (f *fakeCore) Reconcile(context.Context, int) ([]core.Discrepancy, error) {
	f.record("Reconcile")
	return nil, nil
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBrokerDown = errors.New("broker down")
