// Package events publishes inventory domain events after their transaction
// commits. Publishing is best-effort: a broker outage never fails the
// operation that produced the event.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	RequisitionCreated  = "requisition.created"
	RequisitionApproved = "requisition.approved"
	OrderCreated        = "order.created"
	OrderUpdated        = "order.updated"
	OrderApproved       = "order.approved"
	ReceiptReceived     = "receipt.received"
	ReceiptCompleted    = "receipt.completed"
	PutawayCompleted    = "putaway.completed"
	StockPicked         = "stock.picked"
	StockIssued         = "stock.issued"
	StockTransferred    = "stock.transferred"
	ReorderEvaluated    = "reorder.evaluated"
	BinCreated          = "bin.created"
	BinDeactivated      = "bin.deactivated"
)

// Event is the JSON envelope written to the broker.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	WarehouseID int       `json:"warehouse_id"`
	ActorID     int       `json:"actor_id"`
	Data        any       `json:"data,omitempty"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType string, warehouseID, actorID int, data any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		OccurredAt:  time.Now().UTC(),
		WarehouseID: warehouseID,
		ActorID:     actorID,
		Data:        data,
	}
}

// Key partitions events by warehouse so one warehouse's events stay ordered.
func (e Event) Key() []byte {
	return []byte(strconv.Itoa(e.WarehouseID))
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
