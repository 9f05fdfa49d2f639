package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for the order pipeline.
type Repository interface {
	// CreateOrder persists a new order and its items atomically.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its items.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// ListOrdersByStore returns a store's orders, optionally filtered by status.
	ListOrdersByStore(ctx context.Context, storeID string, status string) ([]*Order, error)

	// ListOrdersByStatus returns all orders in the given status.
	ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error)

	// ApplyTransition commits a status change, its price snapshot, and
	// its derivative-row effects in a single transaction. The status
	// update is guarded on the expected current status; a concurrent
	// change surfaces as an InvalidTransitionError.
	ApplyTransition(ctx context.Context, orderID uuid.UUID, t Transition) error

	// GetProductPrice fetches the current catalog price for a product.
	GetProductPrice(ctx context.Context, productID uuid.UUID) (price float64, active bool, err error)

	// HasKitchenSheet reports whether a non-cancelled sheet exists for the order.
	HasKitchenSheet(ctx context.Context, orderID uuid.UUID) (bool, error)

	// FindDeliveryIDByOrder returns the existing delivery for an order, if any.
	FindDeliveryIDByOrder(ctx context.Context, orderID uuid.UUID) (uuid.UUID, bool, error)

	// GetStoreDropoff returns the store's delivery address and coordinates.
	GetStoreDropoff(ctx context.Context, storeID uuid.UUID) (address string, lat, lon *float64, err error)
}
