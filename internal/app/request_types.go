package app

// Request contracts for the write operations. The json tags are the wire
// format, validate tags are checked by validator/v10 before any database
// work, and jsonschema tags feed the published request schemas.

// ListQuery filters list operations. WarehouseID 0 means the actor's
// warehouse, or every warehouse for an admin.
type ListQuery struct {
	WarehouseID int
	Status      string
}

// PutawayQuery filters ListPutawayTasks.
type PutawayQuery struct {
	WarehouseID int
	State       string `validate:"omitempty,oneof=pending completed"`
}

// CreateRequisitionRequest is the input for creating a new requisition.
type CreateRequisitionRequest struct {
	WarehouseID int                      `json:"warehouse_id,omitempty" validate:"gte=0" jsonschema:"description=Target warehouse. Defaults to the caller's warehouse."`
	Notes       string                   `json:"notes,omitempty" validate:"max=1000" jsonschema:"maxLength=1000"`
	Lines       []RequisitionLineRequest `json:"lines" validate:"required,min=1,dive" jsonschema:"minItems=1"`
}

// RequisitionLineRequest is a single line within a CreateRequisitionRequest.
type RequisitionLineRequest struct {
	ItemID   int   `json:"item_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	Quantity int64 `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// ConvertRequisitionRequest names the supplier the purchase order goes to.
type ConvertRequisitionRequest struct {
	SupplierID int `json:"supplier_id" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// UpdateOrderLinesRequest edits lines of a DRAFT purchase order.
type UpdateOrderLinesRequest struct {
	Lines []OrderLineUpdateRequest `json:"lines" validate:"required,min=1,dive" jsonschema:"minItems=1"`
}

// OrderLineUpdateRequest sets the quantity and price of one order line.
// UnitPrice is a decimal string such as "12.50".
type OrderLineUpdateRequest struct {
	LineID    int    `json:"line_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
	UnitPrice string `json:"unit_price" validate:"required,numeric" jsonschema:"pattern=^[0-9]+(\\.[0-9]+)?$"`
}

// ReceiveReceiptRequest lists what arrived against a receipt.
type ReceiveReceiptRequest struct {
	Lines []ReceiveLineRequest `json:"lines" validate:"required,min=1,dive" jsonschema:"minItems=1"`
}

// ReceiveLineRequest is what arrived for one item.
type ReceiveLineRequest struct {
	ItemID     int    `json:"item_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
	BatchCode  string `json:"batch_code,omitempty" validate:"max=100" jsonschema:"maxLength=100"`
	ExpiryDate string `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
}

// CompletePutawayRequest names the bin the stock was placed in.
type CompletePutawayRequest struct {
	BinID int `json:"bin_id" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// PickStockRequest asks for units of a SKU.
type PickStockRequest struct {
	WarehouseID int    `json:"warehouse_id,omitempty" validate:"gte=0"`
	SKU         string `json:"sku" validate:"required,max=64" jsonschema:"maxLength=64"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
	Notes       string `json:"notes,omitempty" validate:"max=500" jsonschema:"maxLength=500"`
}

// IssueStockRequest takes units of an item out of one bin.
type IssueStockRequest struct {
	WarehouseID int   `json:"warehouse_id,omitempty" validate:"gte=0"`
	ItemID      int   `json:"item_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	BinID       int   `json:"bin_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	BatchID     *int  `json:"batch_id,omitempty" validate:"omitempty,gt=0" jsonschema:"minimum=1"`
	Quantity    int64 `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// TransferStockRequest moves units of an item between two bins.
type TransferStockRequest struct {
	WarehouseID int   `json:"warehouse_id,omitempty" validate:"gte=0"`
	ItemID      int   `json:"item_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	FromBinID   int   `json:"from_bin_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	ToBinID     int   `json:"to_bin_id" validate:"required,gt=0,nefield=FromBinID" jsonschema:"minimum=1"`
	Quantity    int64 `json:"quantity" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// CreateBinRequest is the input for a new storage bin.
type CreateBinRequest struct {
	WarehouseID int    `json:"warehouse_id,omitempty" validate:"gte=0"`
	Code        string `json:"code" validate:"required,max=32" jsonschema:"maxLength=32"`
	MaxCapacity int64  `json:"max_capacity" validate:"required,gt=0" jsonschema:"minimum=1"`
}

// ReorderRuleRequest creates or replaces a reorder rule.
type ReorderRuleRequest struct {
	WarehouseID int   `json:"warehouse_id,omitempty" validate:"gte=0"`
	ItemID      int   `json:"item_id" validate:"required,gt=0" jsonschema:"minimum=1"`
	MinQty      int64 `json:"min_qty" validate:"required,gt=0" jsonschema:"minimum=1"`
	MaxQty      int64 `json:"max_qty" validate:"required,gtfield=MinQty" jsonschema:"minimum=2"`
	ReorderQty  int64 `json:"reorder_qty" validate:"required,gt=0" jsonschema:"minimum=1"`
}
