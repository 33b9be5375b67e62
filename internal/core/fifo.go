package core

import (
	"sort"
)

// planFIFO allocates qty across lots oldest first. Lots are ordered by
// ReceivedAt then ID before allocation, so the plan never takes from a newer
// lot while an older one still has stock. It fails with ErrInsufficientStock,
// allocating nothing, when the lots cannot cover qty.
func planFIFO(lots []StockLot, qty int64) ([]PickAllocation, error) {
	if qty <= 0 {
		return nil, ValidationError("quantity must be positive, got %d", qty)
	}

	ordered := make([]StockLot, 0, len(lots))
	var available int64
	for _, l := range lots {
		if l.Quantity > 0 {
			ordered = append(ordered, l)
			available += l.Quantity
		}
	}
	if available < qty {
		return nil, insufficientStock("", qty, available)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ReceivedAt.Equal(ordered[j].ReceivedAt) {
			return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	remaining := qty
	var plan []PickAllocation
	for _, l := range ordered {
		if remaining == 0 {
			break
		}
		take := min(l.Quantity, remaining)
		plan = append(plan, PickAllocation{
			LotID:    l.ID,
			BinID:    l.BinID,
			BinCode:  l.BinCode,
			BatchID:  l.BatchID,
			Quantity: take,
		})
		remaining -= take
	}
	return plan, nil
}

// insufficientStock builds a fresh StockError matching ErrInsufficientStock.
func insufficientStock(sku string, requested, available int64) *Error {
	e := &Error{Kind: ErrInsufficientStock.Kind, Message: ErrInsufficientStock.Message}
	if sku != "" {
		e.WithDetail("sku", sku)
	}
	return e.WithDetail("requested", requested).WithDetail("available", available)
}

// capacityExceeded builds a fresh CapacityError matching ErrCapacityExceeded.
func capacityExceeded(binID int, requested, available int64) *Error {
	e := &Error{Kind: ErrCapacityExceeded.Kind, Message: ErrCapacityExceeded.Message}
	return e.WithDetail("bin_id", binID).WithDetail("requested", requested).WithDetail("available", available)
}
