package delivery

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for deliveries.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Delivery, error)
	GetByOrder(ctx context.Context, orderID string) (*Delivery, error)
	ListByDriver(ctx context.Context, driverID string, statuses []Status) ([]*Delivery, error)
	ListByStore(ctx context.Context, storeID string, status string) ([]*Delivery, error)

	// AssignDriver sets the driver and moves the delivery to ASSIGNED.
	AssignDriver(ctx context.Context, id, driverID uuid.UUID) error

	// Start moves the delivery to IN_TRANSIT, claiming it for the
	// driver when no driver was assigned yet.
	Start(ctx context.Context, id, driverID uuid.UUID) error

	// Complete commits, in one transaction: the delivery's terminal
	// DELIVERED state with proof fields, the parent order's DELIVERED
	// transition, and the store stock decrement for every delivered
	// line item (floored at zero).
	Complete(ctx context.Context, d *Delivery, req CompleteRequest) error

	// Fail marks the delivery FAILED with a reason note.
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}
