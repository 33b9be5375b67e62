package core

import (
	"context"
	"time"
)

// ReorderRule keeps an item's on-hand quantity between MinQty and MaxQty.
type ReorderRule struct {
	ID          int       `json:"id"`
	ItemID      int       `json:"item_id"`
	SKU         string    `json:"sku"`
	ItemName    string    `json:"item_name"`
	WarehouseID int       `json:"warehouse_id"`
	MinQty      int64     `json:"min_qty"`
	MaxQty      int64     `json:"max_qty"`
	ReorderQty  int64     `json:"reorder_qty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReorderRuleInput holds the fields required to create or update a rule.
type ReorderRuleInput struct {
	ItemID      int   `json:"item_id"`
	WarehouseID int   `json:"warehouse_id"`
	MinQty      int64 `json:"min_qty"`
	MaxQty      int64 `json:"max_qty"`
	ReorderQty  int64 `json:"reorder_qty"`
}

// Validate checks the quantity relationships of a rule.
func (in ReorderRuleInput) Validate() error {
	if in.ItemID <= 0 || in.WarehouseID <= 0 {
		return ValidationError("item and warehouse are required")
	}
	if in.MinQty <= 0 || in.MaxQty <= 0 || in.ReorderQty <= 0 {
		return ValidationError("min, max and reorder quantities must be positive")
	}
	if in.MinQty >= in.MaxQty {
		return ValidationError("min quantity %d must be less than max quantity %d", in.MinQty, in.MaxQty)
	}
	return nil
}

// Priority of a reorder suggestion.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank orders priorities high before low.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// PriorityFor classifies the current on-hand quantity against a rule.
func PriorityFor(current, minQty int64) Priority {
	switch {
	case current <= 0:
		return PriorityHigh
	case current < minQty:
		return PriorityMedium
	}
	return PriorityLow
}

// ReorderSuggestion is a read-only recommendation for operator review.
type ReorderSuggestion struct {
	Rule       ReorderRule `json:"rule"`
	CurrentQty int64       `json:"current_qty"`
	Priority   Priority    `json:"priority"`
}

// EvaluateResult lists the requisitions raised by one evaluation pass.
type EvaluateResult struct {
	WarehouseID  int           `json:"warehouse_id"`
	RulesChecked int           `json:"rules_checked"`
	Requisitions []Requisition `json:"requisitions,omitempty"`
}

// ReorderService evaluates rules and manages them.
type ReorderService interface {
	// Evaluate raises one DRAFT requisition per active rule whose item is at
	// or below its minimum. It does not look for requisitions already open.
	Evaluate(ctx context.Context, warehouseID int) (*EvaluateResult, error)

	// Suggestions returns every active rule with its priority, high first.
	Suggestions(ctx context.Context, warehouseID int) ([]ReorderSuggestion, error)

	CreateRule(ctx context.Context, input ReorderRuleInput) (*ReorderRule, error)
	UpdateRule(ctx context.Context, id int, input ReorderRuleInput) (*ReorderRule, error)
	DeactivateRule(ctx context.Context, id int) (*ReorderRule, error)
	GetRule(ctx context.Context, id int) (*ReorderRule, error)
	ListRules(ctx context.Context, warehouseID int) ([]ReorderRule, error)
}
