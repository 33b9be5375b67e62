package core

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type binService struct {
	pool *pgxpool.Pool
}

// NewBinService constructs a BinService backed by PostgreSQL.
func NewBinService(pool *pgxpool.Pool) BinService {
	return &binService{pool: pool}
}

// CreateBin creates an empty ACTIVE bin.
func (s *binService) CreateBin(ctx context.Context, input BinInput) (*Bin, error) {
	code := strings.TrimSpace(input.Code)
	if input.WarehouseID <= 0 {
		return nil, ValidationError("warehouse is required")
	}
	if code == "" {
		return nil, ValidationError("bin code is required")
	}
	if input.MaxCapacity <= 0 {
		return nil, ValidationError("max capacity must be positive, got %d", input.MaxCapacity)
	}

	b := &Bin{}
	if err := scanBin(s.pool.QueryRow(ctx, `
		INSERT INTO bins (warehouse_id, code, max_capacity, used_capacity, available_capacity, status, is_active)
		VALUES ($1, $2, $3, 0, $3, 'ACTIVE', true)
		RETURNING `+binColumns,
		input.WarehouseID, code, input.MaxCapacity,
	), b); err != nil {
		return nil, dbError(err, "create bin")
	}
	return b, nil
}

// DeactivateBin soft-deletes a bin that holds nothing.
func (s *binService) DeactivateBin(ctx context.Context, id int) (*Bin, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, UnexpectedError(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	b := &Bin{}
	if err := scanBin(tx.QueryRow(ctx, "SELECT "+binColumns+" FROM bins WHERE id = $1 FOR UPDATE", id), b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("bin %d not found", id)
		}
		return nil, dbError(err, "lock bin")
	}
	if !b.IsActive {
		return nil, StateTransitionError("bin %d is already inactive", id)
	}
	if b.UsedCapacity > 0 {
		return nil, StateTransitionError("bin %d still holds %d units", id, b.UsedCapacity).
			WithDetail("used_capacity", b.UsedCapacity)
	}

	if _, err := tx.Exec(ctx, "UPDATE bins SET is_active = false WHERE id = $1", id); err != nil {
		return nil, dbError(err, "deactivate bin")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, UnexpectedError(err, "commit bin deactivation")
	}
	b.IsActive = false
	return b, nil
}

func (s *binService) GetBin(ctx context.Context, id int) (*Bin, error) {
	b := &Bin{}
	if err := scanBin(s.pool.QueryRow(ctx, "SELECT "+binColumns+" FROM bins WHERE id = $1", id), b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError("bin %d not found", id)
		}
		return nil, dbError(err, "get bin")
	}
	return b, nil
}

// ListBins returns the bins of a warehouse (0 = all) by code.
func (s *binService) ListBins(ctx context.Context, warehouseID int) ([]Bin, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+binColumns+" FROM bins WHERE ($1 = 0 OR warehouse_id = $1) ORDER BY warehouse_id, code",
		warehouseID,
	)
	if err != nil {
		return nil, dbError(err, "list bins")
	}
	defer rows.Close()

	var out []Bin
	for rows.Next() {
		var b Bin
		if err := scanBin(rows, &b); err != nil {
			return nil, dbError(err, "scan bin")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
