package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"warehouse-inventory/internal/core"
	"warehouse-inventory/internal/events"
	"warehouse-inventory/internal/metrics"
)

const tracerName = "warehouse-inventory/internal/app"

// Reconciler compares ledger balances with live lots. *core.Ledger implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, warehouseID int) ([]core.Discrepancy, error)
}

// Services bundles the core services the application layer orchestrates.
type Services struct {
	Requisitions core.RequisitionService
	Orders       core.PurchaseOrderService
	Receiving    core.ReceivingService
	Putaway      core.PutawayService
	Picking      core.PickingService
	Bins         core.BinService
	Inventory    core.InventoryService
	Reorder      core.ReorderService
	Users        core.UserService
	Catalog      core.CatalogService
	Ledger       Reconciler
}

type appService struct {
	svc       Services
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAppService constructs an appService that satisfies ApplicationService.
// A nil publisher disables domain events.
func NewAppService(svc Services, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) ApplicationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &appService{
		svc:       svc,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// observe runs one operation inside a span and records its outcome.
func observe[T any](ctx context.Context, s *appService, op string, actor Actor, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "app."+op, trace.WithAttributes(
		attribute.Int("actor.id", actor.UserID),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	outcome := "ok"
	if err != nil {
		kind := core.KindOf(err)
		outcome = string(kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind == core.KindUnexpected {
			s.logger.Error("operation failed", zap.String("operation", op), zap.Int("actor_id", actor.UserID), zap.Error(err))
		}
	}
	s.metrics.RecordOperation(op, outcome, time.Since(start))
	return out, err
}

// publish hands an event to the broker after commit. Failures are logged
// and counted, never returned.
func (s *appService) publish(ctx context.Context, eventType string, warehouseID int, actor Actor, data any) {
	evt := events.New(eventType, warehouseID, actor.UserID, data)
	err := s.publisher.Publish(context.WithoutCancel(ctx), evt)
	s.metrics.RecordEventPublished(eventType, err == nil)
	if err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("event_id", evt.ID),
			zap.Error(err))
	}
}

// --- authorization ---------------------------------------------------------

func requireRole(actor Actor, op string, roles ...core.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return core.AuthorizationError("role %s may not %s", actor.Role, op).
		WithDetail("role", string(actor.Role))
}

// authorizeWarehouse checks that a non-admin only touches their own warehouse.
func authorizeWarehouse(actor Actor, warehouseID int) error {
	if actor.IsAdmin() || actor.WarehouseID == warehouseID {
		return nil
	}
	return core.AuthorizationError("user %d cannot access warehouse %d", actor.UserID, warehouseID).
		WithDetail("warehouse_id", warehouseID)
}

// listScope resolves the warehouse filter of a list. Admins may pass 0 for all.
func listScope(actor Actor, requested int) (int, error) {
	if requested == 0 {
		return actor.WarehouseID, nil
	}
	if err := authorizeWarehouse(actor, requested); err != nil {
		return 0, err
	}
	return requested, nil
}

// targetWarehouse resolves the one warehouse an operation acts on.
func targetWarehouse(actor Actor, requested int) (int, error) {
	wh, err := listScope(actor, requested)
	if err != nil {
		return 0, err
	}
	if wh == 0 {
		return 0, core.ValidationError("warehouse_id is required").
			WithDetail("warehouse_id", "warehouse_id is required")
	}
	return wh, nil
}

func parseStatus[S ~string](raw string, allowed ...S) (S, error) {
	if raw == "" {
		return "", nil
	}
	s := S(strings.ToUpper(raw))
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", core.ValidationError("unknown status %q", raw).WithDetail("status", raw)
}

// ResolveActor loads the active user behind userID.
func (s *appService) ResolveActor(ctx context.Context, userID int, role string) (Actor, error) {
	if userID <= 0 {
		return Actor{}, core.AuthorizationError("actor is required")
	}
	u, err := s.svc.Users.GetByID(ctx, userID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return Actor{}, core.AuthorizationError("unknown actor %d", userID)
		}
		return Actor{}, err
	}
	if role != "" && core.Role(strings.ToUpper(role)) != u.Role {
		return Actor{}, core.AuthorizationError("actor %d does not hold role %s", userID, strings.ToUpper(role))
	}

	actor := Actor{UserID: u.ID, Role: u.Role}
	if u.Role != core.RoleAdmin {
		if u.WarehouseID == nil {
			return Actor{}, core.AuthorizationError("user %d is not assigned to a warehouse", userID)
		}
		actor.WarehouseID = *u.WarehouseID
	}
	return actor, nil
}

// --- requisitions ----------------------------------------------------------

func (s *appService) CreateRequisition(ctx context.Context, actor Actor, req CreateRequisitionRequest) (*core.Requisition, error) {
	return observe(ctx, s, "create_requisition", actor, func(ctx context.Context) (*core.Requisition, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		lines := make([]core.RequisitionLineInput, len(req.Lines))
		for i, l := range req.Lines {
			lines[i] = core.RequisitionLineInput{ItemID: l.ItemID, Quantity: l.Quantity}
		}

		pr, err := s.svc.Requisitions.CreateRequisition(ctx, wh, actor.UserID, lines, req.Notes)
		if err != nil {
			return nil, err
		}
		s.logger.Info("requisition created", zap.Int("requisition_id", pr.ID), zap.Int("warehouse_id", wh), zap.Int("lines", len(pr.Lines)))
		s.publish(ctx, events.RequisitionCreated, wh, actor, map[string]any{
			"requisition_id": pr.ID, "source": pr.Source, "lines": len(pr.Lines),
		})
		return pr, nil
	})
}

func (s *appService) ApproveRequisition(ctx context.Context, actor Actor, id int) (*core.Requisition, error) {
	return observe(ctx, s, "approve_requisition", actor, func(ctx context.Context) (*core.Requisition, error) {
		if err := requireRole(actor, "approve requisitions", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		if _, err := s.GetRequisition(ctx, actor, id); err != nil {
			return nil, err
		}
		pr, err := s.svc.Requisitions.ApproveRequisition(ctx, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("requisition approved", zap.Int("requisition_id", pr.ID), zap.Int("approved_by", actor.UserID))
		s.publish(ctx, events.RequisitionApproved, pr.WarehouseID, actor, map[string]any{"requisition_id": pr.ID})
		return pr, nil
	})
}

func (s *appService) GetRequisition(ctx context.Context, actor Actor, id int) (*core.Requisition, error) {
	pr, err := s.svc.Requisitions.GetRequisition(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeWarehouse(actor, pr.WarehouseID); err != nil {
		return nil, err
	}
	return pr, nil
}

func (s *appService) ListRequisitions(ctx context.Context, actor Actor, q ListQuery) (*RequisitionListResult, error) {
	wh, err := listScope(actor, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(q.Status, core.RequisitionDraft, core.RequisitionApproved, core.RequisitionConverted)
	if err != nil {
		return nil, err
	}
	prs, err := s.svc.Requisitions.ListRequisitions(ctx, wh, status)
	if err != nil {
		return nil, err
	}
	return &RequisitionListResult{Requisitions: prs, WarehouseID: wh}, nil
}

// --- purchase orders -------------------------------------------------------

func (s *appService) ConvertRequisition(ctx context.Context, actor Actor, id int, req ConvertRequisitionRequest) (*core.PurchaseOrder, error) {
	return observe(ctx, s, "convert_requisition", actor, func(ctx context.Context) (*core.PurchaseOrder, error) {
		if err := requireRole(actor, "convert requisitions", core.RoleAdmin); err != nil {
			return nil, err
		}
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		po, err := s.svc.Orders.ConvertToOrder(ctx, id, req.SupplierID, actor.UserID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("requisition converted",
			zap.Int("requisition_id", id),
			zap.Int("order_id", po.ID),
			zap.String("total", po.TotalAmount.StringFixed(2)))
		s.publish(ctx, events.OrderCreated, po.WarehouseID, actor, map[string]any{
			"order_id": po.ID, "requisition_id": id, "supplier_id": po.SupplierID, "total_amount": po.TotalAmount,
		})
		return po, nil
	})
}

func (s *appService) GetOrder(ctx context.Context, actor Actor, id int) (*core.PurchaseOrder, error) {
	po, err := s.svc.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeWarehouse(actor, po.WarehouseID); err != nil {
		return nil, err
	}
	return po, nil
}

func (s *appService) ListOrders(ctx context.Context, actor Actor, q ListQuery) (*OrderListResult, error) {
	wh, err := listScope(actor, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(q.Status, core.OrderDraft, core.OrderApproved, core.OrderSent)
	if err != nil {
		return nil, err
	}
	orders, err := s.svc.Orders.ListOrders(ctx, wh, status)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, WarehouseID: wh}, nil
}

func (s *appService) UpdateOrderLines(ctx context.Context, actor Actor, id int, req UpdateOrderLinesRequest) (*core.PurchaseOrder, error) {
	return observe(ctx, s, "update_order_lines", actor, func(ctx context.Context) (*core.PurchaseOrder, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		if _, err := s.GetOrder(ctx, actor, id); err != nil {
			return nil, err
		}
		updates := make([]core.OrderLineUpdate, len(req.Lines))
		for i, l := range req.Lines {
			price, err := decimal.NewFromString(l.UnitPrice)
			if err != nil {
				return nil, core.ValidationError("line %d: invalid unit price %q", l.LineID, l.UnitPrice)
			}
			updates[i] = core.OrderLineUpdate{LineID: l.LineID, Quantity: l.Quantity, UnitPrice: price}
		}
		po, err := s.svc.Orders.UpdateOrderLines(ctx, id, updates)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.OrderUpdated, po.WarehouseID, actor, map[string]any{
			"order_id": po.ID, "total_amount": po.TotalAmount,
		})
		return po, nil
	})
}

func (s *appService) ApproveOrder(ctx context.Context, actor Actor, id int) (*core.PurchaseOrder, error) {
	return observe(ctx, s, "approve_order", actor, func(ctx context.Context) (*core.PurchaseOrder, error) {
		if err := requireRole(actor, "approve purchase orders", core.RoleAdmin); err != nil {
			return nil, err
		}
		po, err := s.svc.Orders.ApproveOrder(ctx, id, actor.UserID)
		if err != nil {
			return nil, err
		}
		data := map[string]any{"order_id": po.ID, "status": po.Status}
		if po.ReceiptID != nil {
			data["receipt_id"] = *po.ReceiptID
		}
		s.logger.Info("purchase order approved and sent", zap.Int("order_id", po.ID), zap.Intp("receipt_id", po.ReceiptID))
		s.publish(ctx, events.OrderApproved, po.WarehouseID, actor, data)
		return po, nil
	})
}

// --- receiving & putaway ---------------------------------------------------

func (s *appService) GetReceipt(ctx context.Context, actor Actor, id int) (*core.Receipt, error) {
	grn, err := s.svc.Receiving.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeWarehouse(actor, grn.WarehouseID); err != nil {
		return nil, err
	}
	return grn, nil
}

func (s *appService) ListReceipts(ctx context.Context, actor Actor, q ListQuery) (*ReceiptListResult, error) {
	wh, err := listScope(actor, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(q.Status, core.ReceiptPending, core.ReceiptReceived, core.ReceiptCompleted)
	if err != nil {
		return nil, err
	}
	grns, err := s.svc.Receiving.ListReceipts(ctx, wh, status)
	if err != nil {
		return nil, err
	}
	return &ReceiptListResult{Receipts: grns, WarehouseID: wh}, nil
}

func (s *appService) ReceiveReceipt(ctx context.Context, actor Actor, id int, req ReceiveReceiptRequest) (*core.ReceiveResult, error) {
	return observe(ctx, s, "receive_receipt", actor, func(ctx context.Context) (*core.ReceiveResult, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		if _, err := s.GetReceipt(ctx, actor, id); err != nil {
			return nil, err
		}
		lines := make([]core.ReceivedLineInput, len(req.Lines))
		for i, l := range req.Lines {
			expiry, err := parseDate(l.ExpiryDate)
			if err != nil {
				return nil, err
			}
			lines[i] = core.ReceivedLineInput{ItemID: l.ItemID, Quantity: l.Quantity, BatchCode: l.BatchCode, ExpiryDate: expiry}
		}

		res, err := s.svc.Receiving.ReceiveReceipt(ctx, id, actor.UserID, lines)
		if err != nil {
			return nil, err
		}
		taskIDs := make([]int, len(res.Tasks))
		for i, t := range res.Tasks {
			taskIDs[i] = t.ID
		}
		s.logger.Info("receipt received", zap.Int("receipt_id", id), zap.Ints("putaway_task_ids", taskIDs))
		s.publish(ctx, events.ReceiptReceived, res.Receipt.WarehouseID, actor, map[string]any{
			"receipt_id": id, "putaway_task_ids": taskIDs,
		})
		return res, nil
	})
}

func (s *appService) ListPutawayTasks(ctx context.Context, actor Actor, q PutawayQuery) (*PutawayListResult, error) {
	if err := validateRequest(q); err != nil {
		return nil, err
	}
	wh, err := listScope(actor, q.WarehouseID)
	if err != nil {
		return nil, err
	}
	filter := core.PutawayFilter{WarehouseID: wh, Status: core.PutawayPending}
	if q.State == "completed" {
		filter.Status = core.PutawayCompleted
		filter.CompletedToday = true
	}
	tasks, err := s.svc.Putaway.ListPutawayTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &PutawayListResult{Tasks: tasks, WarehouseID: wh}, nil
}

func (s *appService) CompletePutaway(ctx context.Context, actor Actor, id int, req CompletePutawayRequest) (*core.PutawayResult, error) {
	return observe(ctx, s, "complete_putaway", actor, func(ctx context.Context) (*core.PutawayResult, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		task, err := s.svc.Putaway.GetPutawayTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorizeWarehouse(actor, task.WarehouseID); err != nil {
			return nil, err
		}

		res, err := s.svc.Putaway.CompletePutaway(ctx, id, req.BinID, actor.UserID)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordUnits(string(core.MovementIn), res.Lot.Quantity)
		s.logger.Info("putaway completed",
			zap.Int("task_id", id),
			zap.Int("bin_id", res.Bin.ID),
			zap.Int64("quantity", res.Lot.Quantity),
			zap.Bool("receipt_completed", res.ReceiptCompleted))
		s.publish(ctx, events.PutawayCompleted, task.WarehouseID, actor, map[string]any{
			"task_id": id, "receipt_id": task.ReceiptID, "item_id": task.ItemID,
			"bin_id": res.Bin.ID, "lot_id": res.Lot.ID, "quantity": res.Lot.Quantity,
		})
		if res.ReceiptCompleted {
			s.publish(ctx, events.ReceiptCompleted, task.WarehouseID, actor, map[string]any{"receipt_id": task.ReceiptID})
		}
		return res, nil
	})
}

// --- picking & movements ---------------------------------------------------

func (s *appService) Pick(ctx context.Context, actor Actor, req PickStockRequest) (*core.PickResult, error) {
	return observe(ctx, s, "pick", actor, func(ctx context.Context) (*core.PickResult, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		res, err := s.svc.Picking.Pick(ctx, core.PickRequest{
			SKU: strings.TrimSpace(req.SKU), Quantity: req.Quantity, WarehouseID: wh, ActorID: actor.UserID, Notes: req.Notes,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.RecordUnits(string(core.MovementOut), res.Quantity)
		s.logger.Info("stock picked", zap.String("sku", res.SKU), zap.Int64("quantity", res.Quantity), zap.Int("lots", len(res.Allocations)))
		s.publish(ctx, events.StockPicked, wh, actor, map[string]any{
			"item_id": res.ItemID, "sku": res.SKU, "quantity": res.Quantity, "allocations": res.Allocations,
		})
		return res, nil
	})
}

func (s *appService) RecentPicks(ctx context.Context, actor Actor, warehouseID, limit int) (*PickListResult, error) {
	wh, err := listScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	picks, err := s.svc.Picking.ListRecentPicks(ctx, wh, limit)
	if err != nil {
		return nil, err
	}
	return &PickListResult{Picks: picks, WarehouseID: wh}, nil
}

func (s *appService) IssueStock(ctx context.Context, actor Actor, req IssueStockRequest) (*core.MovementResult, error) {
	return observe(ctx, s, "issue_stock", actor, func(ctx context.Context) (*core.MovementResult, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		res, err := s.svc.Picking.IssueStock(ctx, core.IssueRequest{
			ItemID: req.ItemID, WarehouseID: wh, BinID: req.BinID, BatchID: req.BatchID, Quantity: req.Quantity, ActorID: actor.UserID,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.RecordUnits(string(core.MovementOut), res.Quantity)
		s.publish(ctx, events.StockIssued, wh, actor, map[string]any{
			"item_id": res.ItemID, "bin_id": req.BinID, "quantity": res.Quantity, "allocations": res.Allocations,
		})
		return res, nil
	})
}

func (s *appService) TransferStock(ctx context.Context, actor Actor, req TransferStockRequest) (*core.MovementResult, error) {
	return observe(ctx, s, "transfer_stock", actor, func(ctx context.Context) (*core.MovementResult, error) {
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		res, err := s.svc.Picking.TransferStock(ctx, core.TransferRequest{
			ItemID: req.ItemID, WarehouseID: wh, FromBinID: req.FromBinID, ToBinID: req.ToBinID, Quantity: req.Quantity, ActorID: actor.UserID,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.RecordUnits(string(core.MovementMove), res.Quantity)
		s.publish(ctx, events.StockTransferred, wh, actor, map[string]any{
			"item_id": res.ItemID, "from_bin_id": req.FromBinID, "to_bin_id": req.ToBinID, "quantity": res.Quantity,
		})
		return res, nil
	})
}

// --- read views ------------------------------------------------------------

func (s *appService) StockLevels(ctx context.Context, actor Actor, warehouseID int) (*StockResult, error) {
	wh, err := targetWarehouse(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	levels, err := s.svc.Inventory.StockLevels(ctx, wh)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, WarehouseID: wh}, nil
}

func (s *appService) StockAging(ctx context.Context, actor Actor, warehouseID int) (*StockAgingResult, error) {
	wh, err := listScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	lots, err := s.svc.Inventory.StockAging(ctx, wh)
	if err != nil {
		return nil, err
	}
	return &StockAgingResult{Lots: lots, WarehouseID: wh}, nil
}

func (s *appService) ExpiringBatches(ctx context.Context, actor Actor, warehouseID, days int) (*ExpiringResult, error) {
	wh, err := targetWarehouse(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, core.ValidationError("days must not be negative").WithDetail("days", days)
	}
	batches, err := s.svc.Inventory.ExpiringBatches(ctx, wh, days)
	if err != nil {
		return nil, err
	}
	return &ExpiringResult{Batches: batches, WarehouseID: wh, Days: days}, nil
}

func (s *appService) Reconcile(ctx context.Context, actor Actor, warehouseID int) (*ReconcileResult, error) {
	return observe(ctx, s, "reconcile", actor, func(ctx context.Context) (*ReconcileResult, error) {
		wh, err := targetWarehouse(actor, warehouseID)
		if err != nil {
			return nil, err
		}
		diffs, err := s.svc.Ledger.Reconcile(ctx, wh)
		if err != nil {
			return nil, err
		}
		if len(diffs) > 0 {
			s.logger.Error("stock ledger out of balance", zap.Int("warehouse_id", wh), zap.Int("discrepancies", len(diffs)))
		}
		return &ReconcileResult{Discrepancies: diffs, WarehouseID: wh}, nil
	})
}

// --- bins ------------------------------------------------------------------

func (s *appService) ListSuppliers(ctx context.Context, actor Actor) (*SupplierListResult, error) {
	suppliers, err := s.svc.Catalog.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) GetItem(ctx context.Context, actor Actor, sku string) (*core.Item, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, core.ValidationError("sku is required")
	}
	return s.svc.Catalog.GetItemBySKU(ctx, sku)
}

func (s *appService) ListBins(ctx context.Context, actor Actor, warehouseID int) (*BinListResult, error) {
	wh, err := listScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	bins, err := s.svc.Bins.ListBins(ctx, wh)
	if err != nil {
		return nil, err
	}
	return &BinListResult{Bins: bins, WarehouseID: wh}, nil
}

func (s *appService) CreateBin(ctx context.Context, actor Actor, req CreateBinRequest) (*core.Bin, error) {
	return observe(ctx, s, "create_bin", actor, func(ctx context.Context) (*core.Bin, error) {
		if err := requireRole(actor, "create bins", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		bin, err := s.svc.Bins.CreateBin(ctx, core.BinInput{WarehouseID: wh, Code: req.Code, MaxCapacity: req.MaxCapacity})
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.BinCreated, wh, actor, map[string]any{"bin_id": bin.ID, "code": bin.Code, "max_capacity": bin.MaxCapacity})
		return bin, nil
	})
}

func (s *appService) DeactivateBin(ctx context.Context, actor Actor, id int) (*core.Bin, error) {
	return observe(ctx, s, "deactivate_bin", actor, func(ctx context.Context) (*core.Bin, error) {
		if err := requireRole(actor, "deactivate bins", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		bin, err := s.svc.Bins.GetBin(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorizeWarehouse(actor, bin.WarehouseID); err != nil {
			return nil, err
		}
		bin, err = s.svc.Bins.DeactivateBin(ctx, id)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.BinDeactivated, bin.WarehouseID, actor, map[string]any{"bin_id": bin.ID, "code": bin.Code})
		return bin, nil
	})
}

// --- reorder ---------------------------------------------------------------

func (s *appService) EvaluateReorder(ctx context.Context, actor Actor, warehouseID int) (*core.EvaluateResult, error) {
	return observe(ctx, s, "evaluate_reorder", actor, func(ctx context.Context) (*core.EvaluateResult, error) {
		wh, err := targetWarehouse(actor, warehouseID)
		if err != nil {
			return nil, err
		}
		res, err := s.svc.Reorder.Evaluate(ctx, wh)
		if err != nil {
			return nil, err
		}
		ids := make([]int, len(res.Requisitions))
		for i, pr := range res.Requisitions {
			ids[i] = pr.ID
		}
		s.logger.Info("reorder rules evaluated",
			zap.Int("warehouse_id", wh),
			zap.Int("rules_checked", res.RulesChecked),
			zap.Ints("requisition_ids", ids))
		s.publish(ctx, events.ReorderEvaluated, wh, actor, map[string]any{
			"rules_checked": res.RulesChecked, "requisition_ids": ids,
		})
		for _, pr := range res.Requisitions {
			s.publish(ctx, events.RequisitionCreated, wh, actor, map[string]any{
				"requisition_id": pr.ID, "source": pr.Source, "lines": len(pr.Lines),
			})
		}
		return res, nil
	})
}

func (s *appService) ReorderSuggestions(ctx context.Context, actor Actor, warehouseID int) (*SuggestionListResult, error) {
	wh, err := targetWarehouse(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	out, err := s.svc.Reorder.Suggestions(ctx, wh)
	if err != nil {
		return nil, err
	}
	return &SuggestionListResult{Suggestions: out, WarehouseID: wh}, nil
}

func (s *appService) ListReorderRules(ctx context.Context, actor Actor, warehouseID int) (*RuleListResult, error) {
	wh, err := listScope(actor, warehouseID)
	if err != nil {
		return nil, err
	}
	rules, err := s.svc.Reorder.ListRules(ctx, wh)
	if err != nil {
		return nil, err
	}
	return &RuleListResult{Rules: rules, WarehouseID: wh}, nil
}

func (s *appService) CreateReorderRule(ctx context.Context, actor Actor, req ReorderRuleRequest) (*core.ReorderRule, error) {
	return observe(ctx, s, "create_reorder_rule", actor, func(ctx context.Context) (*core.ReorderRule, error) {
		if err := requireRole(actor, "manage reorder rules", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		wh, err := targetWarehouse(actor, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		return s.svc.Reorder.CreateRule(ctx, ruleInput(req, wh))
	})
}

func (s *appService) UpdateReorderRule(ctx context.Context, actor Actor, id int, req ReorderRuleRequest) (*core.ReorderRule, error) {
	return observe(ctx, s, "update_reorder_rule", actor, func(ctx context.Context) (*core.ReorderRule, error) {
		if err := requireRole(actor, "manage reorder rules", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		if err := validateRequest(req); err != nil {
			return nil, err
		}
		current, err := s.svc.Reorder.GetRule(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorizeWarehouse(actor, current.WarehouseID); err != nil {
			return nil, err
		}
		wh := req.WarehouseID
		if wh == 0 {
			wh = current.WarehouseID
		}
		return s.svc.Reorder.UpdateRule(ctx, id, ruleInput(req, wh))
	})
}

func (s *appService) DeactivateReorderRule(ctx context.Context, actor Actor, id int) (*core.ReorderRule, error) {
	return observe(ctx, s, "deactivate_reorder_rule", actor, func(ctx context.Context) (*core.ReorderRule, error) {
		if err := requireRole(actor, "manage reorder rules", core.RoleManager, core.RoleAdmin); err != nil {
			return nil, err
		}
		current, err := s.svc.Reorder.GetRule(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorizeWarehouse(actor, current.WarehouseID); err != nil {
			return nil, err
		}
		return s.svc.Reorder.DeactivateRule(ctx, id)
	})
}

func ruleInput(req ReorderRuleRequest, warehouseID int) core.ReorderRuleInput {
	return core.ReorderRuleInput{
		ItemID:      req.ItemID,
		WarehouseID: warehouseID,
		MinQty:      req.MinQty,
		MaxQty:      req.MaxQty,
		ReorderQty:  req.ReorderQty,
	}
}
