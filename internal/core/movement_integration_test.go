package core_test

import (
	"errors"
	"strconv"
	"testing"

	"warehouse-inventory/internal/core"
)

func TestMovement_IssueFromOneBin(t *testing.T) {
	f := newFixture(t)
	b1 := f.bin(t, whMain, "A-01", 100)
	b2 := f.bin(t, whMain, "A-02", 100)
	inB1 := f.stockIn(t, whMain, itemA, 10, b1.ID)
	inB2 := f.stockIn(t, whMain, itemA, 10, b2.ID)

	res, err := f.picking.IssueStock(f.ctx, core.IssueRequest{
		ItemID: itemA, WarehouseID: whMain, BinID: b2.ID, Quantity: 4, ActorID: userStaff,
	})
	if err != nil {
		t.Fatalf("IssueStock failed: %v", err)
	}
	if len(res.Allocations) != 1 || res.Allocations[0].LotID != inB2.Lot.ID {
		t.Fatalf("Expected issue from the A-02 lot only, got %+v", res.Allocations)
	}
	if q := f.lotQty(t, inB1.Lot.ID); q != 10 {
		t.Errorf("Expected older lot in A-01 untouched, got %d", q)
	}
	if used, _ := f.binUsed(t, b2.ID); used != 6 {
		t.Errorf("Expected A-02 to hold 6, got %d", used)
	}

	// Restricting to a batch that is not in the bin finds nothing.
	_, err = f.picking.IssueStock(f.ctx, core.IssueRequest{
		ItemID: itemA, WarehouseID: whMain, BinID: b2.ID, BatchID: inB1.Lot.BatchID, Quantity: 1, ActorID: userStaff,
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock for a foreign batch, got %v", err)
	}

	if n := f.count(t, "SELECT COUNT(*) FROM stock_ledger WHERE reference_type = 'ISSUE' AND quantity = -4"); n != 1 {
		t.Errorf("Expected one ISSUE entry of -4, got %d", n)
	}
	f.assertConserved(t, whMain)
}

func TestMovement_TransferKeepsBatchAndAge(t *testing.T) {
	f := newFixture(t)
	src := f.bin(t, whMain, "A-01", 100)
	dst := f.bin(t, whMain, "A-02", 100)
	older := f.stockIn(t, whMain, itemA, 6, src.ID)
	newer := f.stockIn(t, whMain, itemA, 6, src.ID)

	res, err := f.picking.TransferStock(f.ctx, core.TransferRequest{
		ItemID: itemA, WarehouseID: whMain, FromBinID: src.ID, ToBinID: dst.ID, Quantity: 9, ActorID: userStaff,
	})
	if err != nil {
		t.Fatalf("TransferStock failed: %v", err)
	}
	if len(res.Allocations) != 2 || res.ToBinID == nil || *res.ToBinID != dst.ID {
		t.Fatalf("Expected two source lots moved into A-02, got %+v", res)
	}

	if used, available := f.binUsed(t, src.ID); used != 3 || available != 97 {
		t.Errorf("Expected source 3/97, got %d/%d", used, available)
	}
	if used, available := f.binUsed(t, dst.ID); used != 9 || available != 91 {
		t.Errorf("Expected destination 9/91, got %d/%d", used, available)
	}

	levels, err := f.inventory.StockLevels(f.ctx, whMain)
	if err != nil {
		t.Fatalf("StockLevels failed: %v", err)
	}
	got := map[string]int64{}
	for _, l := range levels {
		got[l.BinCode+"/"+batchKey(l.BatchID)] = l.Quantity
	}
	want := map[string]int64{
		"A-02/" + batchKey(older.Lot.BatchID): 6,
		"A-02/" + batchKey(newer.Lot.BatchID): 3,
		"A-01/" + batchKey(newer.Lot.BatchID): 3,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Expected %s = %d, got %d (all: %v)", k, v, got[k], got)
		}
	}

	// The moved stock keeps its age, so the next pick still drains the
	// older batch from A-02 before the newer remainder in A-01.
	pick, err := f.picking.Pick(f.ctx, core.PickRequest{SKU: "SKU-A", Quantity: 6, WarehouseID: whMain, ActorID: userStaff})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if pick.Allocations[0].BinID != dst.ID || *pick.Allocations[0].BatchID != *older.Lot.BatchID {
		t.Errorf("Expected first allocation from the older batch in A-02, got %+v", pick.Allocations[0])
	}

	if n := f.count(t, "SELECT COALESCE(SUM(quantity), 0)::int FROM stock_ledger WHERE movement_type = 'MOVE'"); n != 0 {
		t.Errorf("Expected MOVE entries to net to zero, got %d", n)
	}
	f.assertConserved(t, whMain)
}

func TestMovement_TransferRejectsFullOrForeignDestination(t *testing.T) {
	f := newFixture(t)
	src := f.bin(t, whMain, "A-01", 100)
	tiny := f.bin(t, whMain, "A-02", 5)
	foreign := f.bin(t, whOther, "B-01", 100)
	lot := f.stockIn(t, whMain, itemA, 10, src.ID)

	for name, to := range map[string]int{"too small": tiny.ID, "other warehouse": foreign.ID} {
		_, err := f.picking.TransferStock(f.ctx, core.TransferRequest{
			ItemID: itemA, WarehouseID: whMain, FromBinID: src.ID, ToBinID: to, Quantity: 8, ActorID: userStaff,
		})
		if !errors.Is(err, core.ErrCapacityExceeded) {
			t.Errorf("%s: expected ErrCapacityExceeded, got %v", name, err)
		}
	}
	if q := f.lotQty(t, lot.Lot.ID); q != 10 {
		t.Errorf("Expected source lot untouched, got %d", q)
	}

	_, err := f.picking.TransferStock(f.ctx, core.TransferRequest{
		ItemID: itemA, WarehouseID: whMain, FromBinID: src.ID, ToBinID: src.ID, Quantity: 1, ActorID: userStaff,
	})
	if core.KindOf(err) != core.KindValidation {
		t.Errorf("Expected VALIDATION for same-bin transfer, got %v", err)
	}
	f.assertConserved(t, whMain)
}

func TestMovement_DeactivateBinRequiresEmpty(t *testing.T) {
	f := newFixture(t)
	b := f.bin(t, whMain, "A-01", 100)
	f.stockIn(t, whMain, itemA, 3, b.ID)

	_, err := f.bins.DeactivateBin(f.ctx, b.ID)
	if core.KindOf(err) != core.KindStateTransition {
		t.Fatalf("Expected STATE_TRANSITION deactivating a non-empty bin, got %v", err)
	}

	if _, err := f.picking.Pick(f.ctx, core.PickRequest{SKU: "SKU-A", Quantity: 3, WarehouseID: whMain, ActorID: userStaff}); err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	got, err := f.bins.DeactivateBin(f.ctx, b.ID)
	if err != nil {
		t.Fatalf("DeactivateBin failed: %v", err)
	}
	if got.IsActive {
		t.Errorf("Expected bin inactive")
	}

	_, err = f.bins.CreateBin(f.ctx, core.BinInput{WarehouseID: whMain, Code: "A-01", MaxCapacity: 10})
	if core.KindOf(err) != core.KindConflict {
		t.Errorf("Expected CONFLICT for a duplicate bin code, got %v", err)
	}
}

func batchKey(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}
