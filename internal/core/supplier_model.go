package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor that purchase orders are placed with.
type Supplier struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a catalog entry. UnitPrice is copied onto order lines at conversion.
type Item struct {
	ID        int             `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
}

// CatalogService reads the supplier and item reference data the workflow depends on.
type CatalogService interface {
	GetSupplier(ctx context.Context, id int) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	GetItemBySKU(ctx context.Context, sku string) (*Item, error)
}
