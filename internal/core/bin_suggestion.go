package core

// BinCandidate is a snapshot of a bin taken when a receipt line is processed.
type BinCandidate struct {
	Bin
	// HoldsItem is true when the bin already has a live lot of the item.
	HoldsItem bool `json:"holds_item"`
}

// BinSuggestion is the outcome of SuggestBin. BinID is nil when no bin fits.
type BinSuggestion struct {
	BinID   *int   `json:"bin_id,omitempty"`
	BinCode string `json:"bin_code"`
	Reason  string `json:"reason"`
}

const (
	reasonSameItem  = "Same item already stored"
	reasonMostSpace = "Available bin with sufficient space"
	reasonNoBin     = "No active bin with sufficient capacity"
)

// SuggestBin picks a bin for qty units. Among ACTIVE bins with enough room it
// prefers one already holding the item, then the one with the most available
// capacity. Ties go to the lowest bin ID. It never touches the database.
func SuggestBin(candidates []BinCandidate, qty int64) BinSuggestion {
	var sameItem, anyBin *BinCandidate
	for i := range candidates {
		c := &candidates[i]
		if !c.Accepts(qty) {
			continue
		}
		if c.HoldsItem && better(c, sameItem) {
			sameItem = c
		}
		if better(c, anyBin) {
			anyBin = c
		}
	}

	switch {
	case sameItem != nil:
		return suggestion(sameItem, reasonSameItem)
	case anyBin != nil:
		return suggestion(anyBin, reasonMostSpace)
	}
	return BinSuggestion{Reason: reasonNoBin}
}

func better(c, best *BinCandidate) bool {
	if best == nil {
		return true
	}
	if c.AvailableCapacity != best.AvailableCapacity {
		return c.AvailableCapacity > best.AvailableCapacity
	}
	return c.ID < best.ID
}

func suggestion(c *BinCandidate, reason string) BinSuggestion {
	id := c.ID
	return BinSuggestion{BinID: &id, BinCode: c.Code, Reason: reason}
}
