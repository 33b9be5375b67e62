package app

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"warehouse-inventory/internal/core"
	"warehouse-inventory/internal/metrics"
)

var (
	admin   = Actor{UserID: 1, Role: core.RoleAdmin}
	manager = Actor{UserID: 2, Role: core.RoleManager, WarehouseID: 1}
	staff   = Actor{UserID: 3, Role: core.RoleStaff, WarehouseID: 1}
	remote  = Actor{UserID: 4, Role: core.RoleStaff, WarehouseID: 2}
)

type harness struct {
	svc     ApplicationService
	core    *fakeCore
	pub     *recordingPublisher
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := newFakeCore()
	pub := &recordingPublisher{}
	m := metrics.New()
	return &harness{
		svc:     NewAppService(fc.services(), pub, m, zap.NewNop()),
		core:    fc,
		pub:     pub,
		metrics: m,
	}
}

func TestResolveActor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.ResolveActor(ctx, 3, "staff")
	require.NoError(t, err)
	assert.Equal(t, staff, a)

	a, err = h.svc.ResolveActor(ctx, 1, "")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin())
	assert.Zero(t, a.WarehouseID)

	for name, tc := range map[string]struct {
		id   int
		role string
	}{
		"missing":       {0, ""},
		"unknown":       {99, ""},
		"role mismatch": {3, "ADMIN"},
		"no warehouse":  {5, ""},
	} {
		_, err := h.svc.ResolveActor(ctx, tc.id, tc.role)
		assert.Equal(t, core.KindAuthorization, core.KindOf(err), name)
	}
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ApproveRequisition(ctx, staff, 10)
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	assert.False(t, h.core.called("ApproveRequisition"))

	pr, err := h.svc.ApproveRequisition(ctx, manager, 10)
	require.NoError(t, err)
	assert.Equal(t, core.RequisitionApproved, pr.Status)

	_, err = h.svc.ConvertRequisition(ctx, manager, 12, ConvertRequisitionRequest{SupplierID: 1})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	_, err = h.svc.ApproveOrder(ctx, manager, 20)
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	assert.False(t, h.core.called("ConvertToOrder"))
	assert.False(t, h.core.called("ApproveOrder"))

	po, err := h.svc.ConvertRequisition(ctx, admin, 12, ConvertRequisitionRequest{SupplierID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, po.WarehouseID)

	_, err = h.svc.CreateBin(ctx, staff, CreateBinRequest{Code: "A-02", MaxCapacity: 10})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	_, err = h.svc.CreateReorderRule(ctx, staff, ReorderRuleRequest{ItemID: 7, MinQty: 1, MaxQty: 5, ReorderQty: 2})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
}

func TestWarehouseScoping(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.GetRequisition(ctx, staff, 11)
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))

	// A manager may approve, but only in their own warehouse.
	_, err = h.svc.ApproveRequisition(ctx, manager, 11)
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	assert.False(t, h.core.called("ApproveRequisition"))

	_, err = h.svc.CompletePutaway(ctx, staff, 41, CompletePutawayRequest{BinID: 50})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
	assert.False(t, h.core.called("CompletePutaway"))

	_, err = h.svc.Pick(ctx, staff, PickStockRequest{WarehouseID: 2, SKU: "SKU-7", Quantity: 1})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))

	res, err := h.svc.ListRequisitions(ctx, staff, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.WarehouseID)
	for _, pr := range res.Requisitions {
		assert.Equal(t, 1, pr.WarehouseID)
	}

	_, err = h.svc.ListRequisitions(ctx, remote, ListQuery{WarehouseID: 1})
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))

	all, err := h.svc.ListRequisitions(ctx, admin, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Requisitions, 3)

	// Admins have no home warehouse, so single-warehouse operations need one.
	_, err = h.svc.StockLevels(ctx, admin, 0)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	stock, err := h.svc.StockLevels(ctx, admin, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stock.WarehouseID)
}

func TestRequestValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateRequisition(ctx, staff, CreateRequisitionRequest{})
	require.Equal(t, core.KindValidation, core.KindOf(err))
	var ce *core.Error
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Details, "lines")

	_, err = h.svc.CreateRequisition(ctx, staff, CreateRequisitionRequest{
		Lines: []RequisitionLineRequest{{ItemID: 7, Quantity: 2}, {ItemID: 8, Quantity: 0}},
	})
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "quantity is required", ce.Details["lines[1].quantity"])
	assert.False(t, h.core.called("CreateRequisition"))

	_, err = h.svc.TransferStock(ctx, staff, TransferStockRequest{ItemID: 7, FromBinID: 50, ToBinID: 50, Quantity: 1})
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Details, "to_bin_id")

	_, err = h.svc.ReceiveReceipt(ctx, staff, 30, ReceiveReceiptRequest{
		Lines: []ReceiveLineRequest{{ItemID: 7, Quantity: 5, ExpiryDate: "31/03/2027"}},
	})
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Details, "lines[0].expiry_date")

	_, err = h.svc.CreateReorderRule(ctx, manager, ReorderRuleRequest{ItemID: 7, MinQty: 50, MaxQty: 50, ReorderQty: 10})
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Details, "max_qty")

	_, err = h.svc.ListPutawayTasks(ctx, staff, PutawayQuery{State: "someday"})
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	_, err = h.svc.ListOrders(ctx, staff, ListQuery{Status: "shipped"})
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	_, err = h.svc.CreateRequisition(ctx, admin, CreateRequisitionRequest{Lines: []RequisitionLineRequest{{ItemID: 7, Quantity: 1}}})
	assert.Equal(t, core.KindValidation, core.KindOf(err), "admin must name a warehouse")
}

func TestCreateRequisition_UsesActor(t *testing.T) {
	h := newHarness(t)

	pr, err := h.svc.CreateRequisition(context.Background(), staff, CreateRequisitionRequest{
		Notes: "monthly", Lines: []RequisitionLineRequest{{ItemID: 7, Quantity: 25}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, pr.WarehouseID)
	assert.Equal(t, staff.UserID, pr.RequestedBy)
	assert.Equal(t, []string{"requisition.created"}, h.pub.types())
}

func TestUpdateOrderLines_ParsesPrices(t *testing.T) {
	h := newHarness(t)

	po, err := h.svc.UpdateOrderLines(context.Background(), staff, 20, UpdateOrderLinesRequest{
		Lines: []OrderLineUpdateRequest{{LineID: 1, Quantity: 4, UnitPrice: "2.50"}, {LineID: 2, Quantity: 1, UnitPrice: "75"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "85.00", po.TotalAmount.StringFixed(2))
}

func TestReceiveReceipt_ParsesExpiry(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.ReceiveReceipt(context.Background(), staff, 30, ReceiveReceiptRequest{
		Lines: []ReceiveLineRequest{{ItemID: 7, Quantity: 5, BatchCode: "B1", ExpiryDate: "2027-03-31"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Batches, 1)
	require.NotNil(t, res.Batches[0].ExpiryDate)
	assert.Equal(t, "2027-03-31", res.Batches[0].ExpiryDate.Format("2006-01-02"))
	assert.Equal(t, []string{"receipt.received"}, h.pub.types())
}

func TestCompletePutaway_PublishesAndCounts(t *testing.T) {
	h := newHarness(t)
	h.core.receiptDone = true

	res, err := h.svc.CompletePutaway(context.Background(), staff, 40, CompletePutawayRequest{BinID: 50})
	require.NoError(t, err)
	assert.True(t, res.ReceiptCompleted)

	assert.Equal(t, []string{"putaway.completed", "receipt.completed"}, h.pub.types())
	assert.Equal(t, 12.0, testutil.ToFloat64(h.metrics.UnitsMoved.WithLabelValues("IN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.OperationsTotal.WithLabelValues("complete_putaway", "ok")))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t)
	h.pub.err = errBrokerDown

	res, err := h.svc.Pick(context.Background(), staff, PickStockRequest{SKU: " SKU-7 ", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "SKU-7", res.SKU)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsPublished.WithLabelValues("stock.picked", "failure")))
}

func TestFailedOperationRecordsKind(t *testing.T) {
	h := newHarness(t)
	h.core.pickErr = core.ErrInsufficientStock

	_, err := h.svc.Pick(context.Background(), staff, PickStockRequest{SKU: "SKU-7", Quantity: 3})
	assert.ErrorIs(t, err, core.ErrInsufficientStock)
	assert.Empty(t, h.pub.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.OperationsTotal.WithLabelValues("pick", "STOCK")))
}

func TestEvaluateReorder_PublishesPerRequisition(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.EvaluateReorder(context.Background(), admin, 1)
	require.NoError(t, err)
	assert.Len(t, res.Requisitions, 1)
	assert.Equal(t, []string{"reorder.evaluated", "requisition.created"}, h.pub.types())
}

func TestListPutawayTasks_State(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ListPutawayTasks(ctx, staff, PutawayQuery{})
	require.NoError(t, err)
	_, err = h.svc.ListPutawayTasks(ctx, staff, PutawayQuery{State: "completed"})
	require.NoError(t, err)
	assert.True(t, h.core.called("ListPutawayTasks:PENDING"))
	assert.True(t, h.core.called("ListPutawayTasks:COMPLETED"))
}

func TestReorderRules_KeepWarehouseOnUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r, err := h.svc.UpdateReorderRule(ctx, manager, 60, ReorderRuleRequest{ItemID: 7, MinQty: 5, MaxQty: 80, ReorderQty: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(80), r.MaxQty)

	_, err = h.svc.DeactivateReorderRule(ctx, Actor{UserID: 9, Role: core.RoleManager, WarehouseID: 2}, 60)
	assert.Equal(t, core.KindAuthorization, core.KindOf(err))
}

func TestRequestSchema(t *testing.T) {
	s, ok := RequestSchema("pick")
	require.True(t, ok)
	require.NotNil(t, s.Properties)
	_, hasSKU := s.Properties.Get("sku")
	assert.True(t, hasSKU)
	assert.Contains(t, s.Required, "sku")

	_, ok = RequestSchema("nope")
	assert.False(t, ok)
	assert.Contains(t, SchemaOperations(), "receive-receipt")
}

func TestCatalogLookups(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.svc.ListSuppliers(ctx, staff)
	require.NoError(t, err)
	require.Len(t, list.Suppliers, 1)
	assert.Equal(t, "SUP1", list.Suppliers[0].Code)

	it, err := h.svc.GetItem(ctx, staff, "  SKU-7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, it.ID)
	assert.True(t, h.core.called("GetItemBySKU:SKU-7"))

	_, err = h.svc.GetItem(ctx, staff, " ")
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	_, err = h.svc.GetItem(ctx, staff, "SKU-404")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
