package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for notifications.
type Repository interface {
	CreateBatch(ctx context.Context, notifications []*Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// ListStoreUserIDs returns the active users attached to a store.
	ListStoreUserIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error)

	// Exists reports whether a notification of the given type already
	// references relatedID since the given time. Used by sweeps to
	// stay idempotent.
	Exists(ctx context.Context, notifType string, relatedID uuid.UUID, since time.Time) (bool, error)
}
