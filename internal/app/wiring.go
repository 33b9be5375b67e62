package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"warehouse-inventory/internal/core"
)

// NewServices builds the PostgreSQL-backed core services over one pool.
// systemUserID is recorded as the requester of auto-raised requisitions.
func NewServices(pool *pgxpool.Pool, systemUserID int) Services {
	ledger := core.NewLedger(pool)
	return Services{
		Requisitions: core.NewRequisitionService(pool),
		Orders:       core.NewPurchaseOrderService(pool),
		Receiving:    core.NewReceivingService(pool),
		Putaway:      core.NewPutawayService(pool, ledger),
		Picking:      core.NewPickingService(pool, ledger),
		Bins:         core.NewBinService(pool),
		Inventory:    core.NewInventoryService(pool),
		Reorder:      core.NewReorderService(pool, systemUserID),
		Users:        core.NewUserService(pool),
		Catalog:      core.NewCatalogService(pool),
		Ledger:       ledger,
	}
}
