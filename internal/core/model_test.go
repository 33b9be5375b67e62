package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequisitionStatus_Transitions(t *testing.T) {
	assert.True(t, RequisitionDraft.CanTransitionTo(RequisitionApproved))
	assert.True(t, RequisitionApproved.CanTransitionTo(RequisitionConverted))

	assert.False(t, RequisitionDraft.CanTransitionTo(RequisitionConverted))
	assert.False(t, RequisitionApproved.CanTransitionTo(RequisitionDraft))
	assert.False(t, RequisitionConverted.CanTransitionTo(RequisitionApproved))
	assert.False(t, RequisitionConverted.CanTransitionTo(RequisitionConverted))
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderDraft.CanTransitionTo(OrderApproved))
	assert.True(t, OrderApproved.CanTransitionTo(OrderSent))

	assert.False(t, OrderDraft.CanTransitionTo(OrderSent))
	assert.False(t, OrderSent.CanTransitionTo(OrderApproved))
	assert.False(t, OrderSent.CanTransitionTo(OrderSent))
}

func TestReceiptStatus_Transitions(t *testing.T) {
	assert.True(t, ReceiptPending.CanTransitionTo(ReceiptReceived))
	assert.True(t, ReceiptReceived.CanTransitionTo(ReceiptCompleted))

	assert.False(t, ReceiptPending.CanTransitionTo(ReceiptCompleted))
	assert.False(t, ReceiptCompleted.CanTransitionTo(ReceiptReceived))
	assert.False(t, ReceiptReceived.CanTransitionTo(ReceiptPending))
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityFor(0, 20))
	assert.Equal(t, PriorityHigh, PriorityFor(-3, 20))
	assert.Equal(t, PriorityMedium, PriorityFor(15, 20))
	assert.Equal(t, PriorityLow, PriorityFor(20, 20))
	assert.Equal(t, PriorityLow, PriorityFor(90, 20))

	assert.Less(t, PriorityHigh.rank(), PriorityMedium.rank())
	assert.Less(t, PriorityMedium.rank(), PriorityLow.rank())
}

func TestReorderRuleInput_Validate(t *testing.T) {
	ok := ReorderRuleInput{ItemID: 1, WarehouseID: 1, MinQty: 10, MaxQty: 100, ReorderQty: 50}
	assert.NoError(t, ok.Validate())

	bad := map[string]ReorderRuleInput{
		"missing item":   {WarehouseID: 1, MinQty: 10, MaxQty: 100, ReorderQty: 50},
		"zero min":       {ItemID: 1, WarehouseID: 1, MaxQty: 100, ReorderQty: 50},
		"zero reorder":   {ItemID: 1, WarehouseID: 1, MinQty: 10, MaxQty: 100},
		"min equals max": {ItemID: 1, WarehouseID: 1, MinQty: 100, MaxQty: 100, ReorderQty: 50},
		"min above max":  {ItemID: 1, WarehouseID: 1, MinQty: 200, MaxQty: 100, ReorderQty: 50},
	}
	for name, in := range bad {
		assert.Equal(t, KindValidation, KindOf(in.Validate()), name)
	}
}

func TestBin_Accepts(t *testing.T) {
	b := Bin{IsActive: true, Status: BinActive, MaxCapacity: 50, AvailableCapacity: 20}
	assert.True(t, b.Accepts(20))
	assert.False(t, b.Accepts(21))

	blocked := b
	blocked.Status = BinBlocked
	assert.False(t, blocked.Accepts(1))

	inactive := b
	inactive.IsActive = false
	assert.False(t, inactive.Accepts(1))
}
