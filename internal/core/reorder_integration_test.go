package core_test

import (
	"testing"
	"time"

	"warehouse-inventory/internal/core"
)

func (f *fixture) rule(t *testing.T, itemID int, minQty, maxQty, reorderQty int64) *core.ReorderRule {
	t.Helper()
	r, err := f.reorder.CreateRule(f.ctx, core.ReorderRuleInput{
		ItemID: itemID, WarehouseID: whMain, MinQty: minQty, MaxQty: maxQty, ReorderQty: reorderQty,
	})
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	return r
}

// Scenario C: one rule at min 20 with 15 on hand raises exactly one requisition.
func TestReorder_EvaluateRaisesRequisitionBelowMin(t *testing.T) {
	f := newFixture(t)
	b := f.bin(t, whMain, "A-01", 500)
	f.stockIn(t, whMain, itemA, 15, b.ID)
	f.stockIn(t, whMain, itemB, 80, b.ID)
	f.rule(t, itemA, 20, 100, 60)
	f.rule(t, itemB, 20, 100, 60)

	res, err := f.reorder.Evaluate(f.ctx, whMain)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.RulesChecked != 2 {
		t.Errorf("Expected 2 rules checked, got %d", res.RulesChecked)
	}
	if len(res.Requisitions) != 1 {
		t.Fatalf("Expected exactly one requisition, got %d", len(res.Requisitions))
	}
	pr := res.Requisitions[0]
	if pr.Status != core.RequisitionDraft || pr.Source != core.SourceReorder || pr.RequestedBy != userSystem {
		t.Errorf("Expected DRAFT REORDER requisition by the system user, got %s %s by %d", pr.Status, pr.Source, pr.RequestedBy)
	}
	if len(pr.Lines) != 1 || pr.Lines[0].ItemID != itemA || pr.Lines[0].Quantity != 60 {
		t.Errorf("Expected one line of 60 x item A, got %+v", pr.Lines)
	}

	// No de-duplication: a second pass raises another one.
	if _, err := f.reorder.Evaluate(f.ctx, whMain); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if n := f.count(t, "SELECT COUNT(*) FROM requisitions WHERE source = 'REORDER'"); n != 2 {
		t.Errorf("Expected 2 reorder requisitions after two passes, got %d", n)
	}
}

func TestReorder_EvaluateAtExactlyMin(t *testing.T) {
	f := newFixture(t)
	b := f.bin(t, whMain, "A-01", 500)
	f.stockIn(t, whMain, itemA, 20, b.ID)
	f.rule(t, itemA, 20, 100, 50)

	res, err := f.reorder.Evaluate(f.ctx, whMain)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(res.Requisitions) != 1 {
		t.Errorf("Expected on-hand equal to min to trigger a reorder, got %d requisitions", len(res.Requisitions))
	}
}

func TestReorder_SuggestionsPriority(t *testing.T) {
	f := newFixture(t)
	b := f.bin(t, whMain, "A-01", 500)
	f.stockIn(t, whMain, itemB, 5, b.ID)
	f.stockIn(t, whMain, itemC, 90, b.ID)
	f.rule(t, itemA, 10, 100, 40) // 0 on hand
	f.rule(t, itemB, 10, 100, 40) // below min
	f.rule(t, itemC, 10, 100, 40) // healthy

	got, err := f.reorder.Suggestions(f.ctx, whMain)
	if err != nil {
		t.Fatalf("Suggestions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 suggestions, got %d", len(got))
	}
	want := []core.Priority{core.PriorityHigh, core.PriorityMedium, core.PriorityLow}
	for i, p := range want {
		if got[i].Priority != p {
			t.Errorf("suggestion %d: expected %s, got %s (%s)", i, p, got[i].Priority, got[i].Rule.SKU)
		}
	}
	if got[1].CurrentQty != 5 {
		t.Errorf("Expected item B at 5 on hand, got %d", got[1].CurrentQty)
	}
	if n := f.count(t, "SELECT COUNT(*) FROM requisitions"); n != 2 {
		// Only the two stockIn requisitions; suggestions never write.
		t.Errorf("Expected suggestions to write nothing, got %d requisitions", n)
	}
}

func TestReorder_RuleLifecycle(t *testing.T) {
	f := newFixture(t)

	_, err := f.reorder.CreateRule(f.ctx, core.ReorderRuleInput{ItemID: itemA, WarehouseID: whMain, MinQty: 50, MaxQty: 50, ReorderQty: 10})
	if core.KindOf(err) != core.KindValidation {
		t.Fatalf("Expected VALIDATION for min >= max, got %v", err)
	}

	r := f.rule(t, itemA, 10, 100, 40)
	_, err = f.reorder.CreateRule(f.ctx, core.ReorderRuleInput{ItemID: itemA, WarehouseID: whMain, MinQty: 5, MaxQty: 50, ReorderQty: 10})
	if core.KindOf(err) != core.KindConflict {
		t.Fatalf("Expected CONFLICT for a second active rule, got %v", err)
	}

	updated, err := f.reorder.UpdateRule(f.ctx, r.ID, core.ReorderRuleInput{ItemID: itemA, WarehouseID: whMain, MinQty: 15, MaxQty: 120, ReorderQty: 50})
	if err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}
	if updated.MinQty != 15 || updated.MaxQty != 120 || updated.ReorderQty != 50 {
		t.Errorf("Expected updated quantities, got %+v", updated)
	}

	if _, err := f.reorder.DeactivateRule(f.ctx, r.ID); err != nil {
		t.Fatalf("DeactivateRule failed: %v", err)
	}
	if _, err := f.reorder.DeactivateRule(f.ctx, r.ID); core.KindOf(err) != core.KindStateTransition {
		t.Errorf("Expected STATE_TRANSITION deactivating twice, got %v", err)
	}

	// The slot is free again once the old rule is inactive.
	f.rule(t, itemA, 5, 50, 10)
	rules, err := f.reorder.ListRules(f.ctx, whMain)
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(rules) != 2 || !rules[0].IsActive {
		t.Errorf("Expected active rule listed before the inactive one, got %+v", rules)
	}

	res, err := f.reorder.Evaluate(f.ctx, whMain)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.RulesChecked != 1 {
		t.Errorf("Expected inactive rules to be skipped, checked %d", res.RulesChecked)
	}
}

func TestInventory_ExpiringBatches(t *testing.T) {
	f := newFixture(t)
	b := f.bin(t, whMain, "A-01", 500)

	soon := time.Now().AddDate(0, 0, 5)
	later := time.Now().AddDate(0, 0, 90)
	po := f.sentOrder(t, whMain,
		core.RequisitionLineInput{ItemID: itemA, Quantity: 10},
		core.RequisitionLineInput{ItemID: itemB, Quantity: 10},
	)
	res, err := f.receiving.ReceiveReceipt(f.ctx, *po.ReceiptID, userStaff, []core.ReceivedLineInput{
		{ItemID: itemA, Quantity: 10, BatchCode: "SOON", ExpiryDate: &soon},
		{ItemID: itemB, Quantity: 10, BatchCode: "LATER", ExpiryDate: &later},
	})
	if err != nil {
		t.Fatalf("ReceiveReceipt failed: %v", err)
	}
	for _, task := range res.Tasks {
		if _, err := f.putaway.CompletePutaway(f.ctx, task.ID, b.ID, userStaff); err != nil {
			t.Fatalf("CompletePutaway failed: %v", err)
		}
	}

	got, err := f.inventory.ExpiringBatches(f.ctx, whMain, 30)
	if err != nil {
		t.Fatalf("ExpiringBatches failed: %v", err)
	}
	if len(got) != 1 || got[0].BatchCode == nil || *got[0].BatchCode != "SOON" {
		t.Fatalf("Expected only the SOON batch, got %+v", got)
	}
	if got[0].Quantity != 10 || got[0].DaysLeft < 4 || got[0].DaysLeft > 5 {
		t.Errorf("Expected 10 units with ~5 days left, got %d units, %d days", got[0].Quantity, got[0].DaysLeft)
	}

	// Once picked empty the batch no longer shows up.
	if _, err := f.picking.Pick(f.ctx, core.PickRequest{SKU: "SKU-A", Quantity: 10, WarehouseID: whMain, ActorID: userStaff}); err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	got, err = f.inventory.ExpiringBatches(f.ctx, whMain, 30)
	if err != nil {
		t.Fatalf("ExpiringBatches failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no expiring stock after the pick, got %+v", got)
	}

	aging, err := f.inventory.StockAging(f.ctx, whMain)
	if err != nil {
		t.Fatalf("StockAging failed: %v", err)
	}
	if len(aging) != 1 || aging[0].SKU != "SKU-B" || aging[0].AgeDays != 0 {
		t.Errorf("Expected one fresh SKU-B lot, got %+v", aging)
	}
}
