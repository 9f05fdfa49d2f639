package temperature

import (
	"context"
	"time"
)

// Repository defines append-only data access for temperature logs.
type Repository interface {
	CreateLog(ctx context.Context, log *Log) error
	ListLogsByStore(ctx context.Context, storeID string, limit int) ([]*Log, error)
	ListLogsByDelivery(ctx context.Context, deliveryID string) ([]*Log, error)

	// ListNonCompliantSince returns breaching logs recorded at or
	// after the given time, oldest first.
	ListNonCompliantSince(ctx context.Context, since time.Time) ([]*Log, error)
}
