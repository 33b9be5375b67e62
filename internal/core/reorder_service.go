package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type reorderService struct {
	pool         *pgxpool.Pool
	systemUserID int
}

// NewReorderService constructs a ReorderService. Requisitions raised by
// Evaluate are requested by systemUserID.
func NewReorderService(pool *pgxpool.Pool, systemUserID int) ReorderService {
	return &reorderService{pool: pool, systemUserID: systemUserID}
}

// ruleStockSelect joins each rule with the live on-hand quantity of its item.
const ruleStockSelect = `
	SELECT rr.id, rr.item_id, i.sku, i.name, rr.warehouse_id, rr.min_qty, rr.max_qty,
	       rr.reorder_qty, rr.is_active, rr.created_at, rr.updated_at,
	       COALESCE((
	           SELECT SUM(sl.quantity) FROM stock_lots sl
	           WHERE sl.item_id = rr.item_id AND sl.warehouse_id = rr.warehouse_id
	       ), 0)::bigint
	FROM reorder_rules rr
	JOIN items i ON i.id = rr.item_id
	WHERE rr.warehouse_id = $1 AND rr.is_active = true AND i.is_active = true`

func (s *reorderService) rulesWithStock(ctx context.Context, q querier, warehouseID int) ([]ReorderSuggestion, error) {
	rows, err := q.Query(ctx, ruleStockSelect+" ORDER BY i.sku", warehouseID)
	if err != nil {
		return nil, dbError(err, "query reorder rules")
	}
	defer rows.Close()

	var out []ReorderSuggestion
	for rows.Next() {
		var sg ReorderSuggestion
		r := &sg.Rule
		if err := rows.Scan(&r.ID, &r.ItemID, &r.SKU, &r.ItemName, &r.WarehouseID, &r.MinQty, &r.MaxQty,
			&r.ReorderQty, &r.IsActive, &r.CreatedAt, &r.UpdatedAt, &sg.CurrentQty); err != nil {
			return nil, dbError(err, "scan reorder rule")
		}
		sg.Priority = PriorityFor(sg.CurrentQty, r.MinQty)
		out = append(out, sg)
	}
	return out, rows.Err()
}

// Evaluate raises one DRAFT requisition of ReorderQty for every active rule
// whose item is at or below MinQty. All requisitions commit together.
func (s *reorderService) Evaluate(ctx context.Context, warehouseID int) (*EvaluateResult, error) {
	if warehouseID <= 0 {
		return nil, ValidationError("warehouse is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	rules, err := s.rulesWithStock(ctx, tx, warehouseID)
	if err != nil {
		return nil, err
	}

	result := &EvaluateResult{WarehouseID: warehouseID, RulesChecked: len(rules)}
	for _, sg := range rules {
		if sg.CurrentQty > sg.Rule.MinQty {
			continue
		}
		notes := fmt.Sprintf("Auto reorder: %s on hand %d, min %d", sg.Rule.SKU, sg.CurrentQty, sg.Rule.MinQty)
		id, err := createRequisitionTx(ctx, tx, warehouseID, s.systemUserID, SourceReorder,
			[]RequisitionLineInput{{ItemID: sg.Rule.ItemID, Quantity: sg.Rule.ReorderQty}}, notes)
		if err != nil {
			return nil, err
		}
		pr, err := getRequisition(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		result.Requisitions = append(result.Requisitions, *pr)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit reorder evaluation")
	}
	return result, nil
}

// Suggestions returns every active rule of the warehouse with its priority,
// high first, then by SKU. Nothing is written.
func (s *reorderService) Suggestions(ctx context.Context, warehouseID int) ([]ReorderSuggestion, error) {
	out, err := s.rulesWithStock(ctx, s.pool, warehouseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.rank() != out[j].Priority.rank() {
			return out[i].Priority.rank() < out[j].Priority.rank()
		}
		return out[i].Rule.SKU < out[j].Rule.SKU
	})
	return out, nil
}

const ruleSelect = `
	SELECT rr.id, rr.item_id, i.sku, i.name, rr.warehouse_id, rr.min_qty, rr.max_qty,
	       rr.reorder_qty, rr.is_active, rr.created_at, rr.updated_at
	FROM reorder_rules rr
	JOIN items i ON i.id = rr.item_id`

func scanRule(row pgx.Row, r *ReorderRule) error {
	return row.Scan(&r.ID, &r.ItemID, &r.SKU, &r.ItemName, &r.WarehouseID, &r.MinQty, &r.MaxQty,
		&r.ReorderQty, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
}

// CreateRule adds an active rule. An item has at most one active rule per
// warehouse; a second one is a CONFLICT.
func (s *reorderService) CreateRule(ctx context.Context, input ReorderRuleInput) (*ReorderRule, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var id int
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO reorder_rules (item_id, warehouse_id, min_qty, max_qty, reorder_qty)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		input.ItemID, input.WarehouseID, input.MinQty, input.MaxQty, input.ReorderQty,
	).Scan(&id); err != nil {
		return nil, dbError(err, "create reorder rule")
	}
	return s.GetRule(ctx, id)
}

// UpdateRule replaces the quantities of an active rule. Item and warehouse
// cannot change.
func (s *reorderService) UpdateRule(ctx context.Context, id int, input ReorderRuleInput) (*ReorderRule, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ItemID != input.ItemID || existing.WarehouseID != input.WarehouseID {
		return nil, ValidationError("reorder rule %d: item and warehouse cannot change", id)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE reorder_rules
		SET min_qty = $2, max_qty = $3, reorder_qty = $4, updated_at = NOW()
		WHERE id = $1 AND is_active = true`,
		id, input.MinQty, input.MaxQty, input.ReorderQty,
	)
	if err != nil {
		return nil, dbError(err, "update reorder rule")
	}
	if tag.RowsAffected() == 0 {
		return nil, StateTransitionError("reorder rule %d is inactive", id)
	}
	return s.GetRule(ctx, id)
}

func (s *reorderService) DeactivateRule(ctx context.Context, id int) (*ReorderRule, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE reorder_rules SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active = true",
		id,
	)
	if err != nil {
		return nil, dbError(err, "deactivate reorder rule")
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetRule(ctx, id); err != nil {
			return nil, err
		}
		return nil, StateTransitionError("reorder rule %d is already inactive", id)
	}
	return s.GetRule(ctx, id)
}

func (s *reorderService) GetRule(ctx context.Context, id int) (*ReorderRule, error) {
	r := &ReorderRule{}
	if err := scanRule(s.pool.QueryRow(ctx, ruleSelect+" WHERE rr.id = $1", id), r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("reorder rule %d not found", id)
		}
		return nil, dbError(err, "get reorder rule")
	}
	return r, nil
}

// ListRules returns the active and inactive rules of a warehouse (0 = all).
func (s *reorderService) ListRules(ctx context.Context, warehouseID int) ([]ReorderRule, error) {
	rows, err := s.pool.Query(ctx, ruleSelect+`
		WHERE ($1 = 0 OR rr.warehouse_id = $1)
		ORDER BY rr.is_active DESC, i.sku, rr.id`,
		warehouseID,
	)
	if err != nil {
		return nil, dbError(err, "list reorder rules")
	}
	defer rows.Close()

	var out []ReorderRule
	for rows.Next() {
		var r ReorderRule
		if err := scanRule(rows, &r); err != nil {
			return nil, dbError(err, "scan reorder rule")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
