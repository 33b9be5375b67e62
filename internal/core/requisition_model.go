package core

import (
	"context"
	"time"
)

// RequisitionStatus is the lifecycle state of a purchase requisition.
// DRAFT → APPROVED → CONVERTED; CONVERTED is terminal.
type RequisitionStatus string

const (
	RequisitionDraft     RequisitionStatus = "DRAFT"
	RequisitionApproved  RequisitionStatus = "APPROVED"
	RequisitionConverted RequisitionStatus = "CONVERTED"
)

// CanTransitionTo reports whether the workflow permits s → next.
func (s RequisitionStatus) CanTransitionTo(next RequisitionStatus) bool {
	switch s {
	case RequisitionDraft:
		return next == RequisitionApproved
	case RequisitionApproved:
		return next == RequisitionConverted
	}
	return false
}

// RequisitionSource records who raised the requisition.
type RequisitionSource string

const (
	SourceManual  RequisitionSource = "MANUAL"
	SourceReorder RequisitionSource = "REORDER"
)

// Requisition is a request to procure items for a warehouse.
type Requisition struct {
	ID          int               `json:"id"`
	WarehouseID int               `json:"warehouse_id"`
	RequestedBy int               `json:"requested_by"`
	Status      RequisitionStatus `json:"status"`
	Source      RequisitionSource `json:"source"`
	Notes       *string           `json:"notes,omitempty"`
	ApprovedBy  *int              `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time        `json:"approved_at,omitempty"`
	ConvertedAt *time.Time        `json:"converted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Lines       []RequisitionLine `json:"lines,omitempty"`
}

// RequisitionLine is one requested item.
type RequisitionLine struct {
	ID            int    `json:"id"`
	RequisitionID int    `json:"requisition_id"`
	ItemID        int    `json:"item_id"`
	SKU           string `json:"sku"`
	ItemName      string `json:"item_name"`
	Quantity      int64  `json:"quantity"`
}

// RequisitionLineInput holds the fields required to create a requisition line.
type RequisitionLineInput struct {
	ItemID   int   `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

// RequisitionService manages requisitions up to approval. Conversion to a
// purchase order lives on PurchaseOrderService.
type RequisitionService interface {
	// CreateRequisition creates a DRAFT requisition. Items must be distinct
	// and every quantity positive.
	CreateRequisition(ctx context.Context, warehouseID, requestedBy int, lines []RequisitionLineInput, notes string) (*Requisition, error)

	// ApproveRequisition moves a DRAFT requisition to APPROVED.
	ApproveRequisition(ctx context.Context, id, approvedBy int) (*Requisition, error)

	GetRequisition(ctx context.Context, id int) (*Requisition, error)

	// ListRequisitions filters by warehouse (0 = all) and status ("" = all).
	ListRequisitions(ctx context.Context, warehouseID int, status RequisitionStatus) ([]Requisition, error)
}
