package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for stores, stock records and the
// replenishment drafts derived from them.
type Repository interface {
	CreateStore(ctx context.Context, s *Store) error
	GetStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)
	UpdateStore(ctx context.Context, s *Store) error

	GetStock(ctx context.Context, storeID, productID uuid.UUID) (*StockRecord, error)
	ListStoreStock(ctx context.Context, storeID string) ([]*StockRecord, error)

	// UpsertStock writes the level and threshold for one (store,
	// product) pair; last write wins.
	UpsertStock(ctx context.Context, storeID, productID uuid.UUID, level, threshold int) error

	// ListBreachedRecords returns every record with currentLevel below
	// threshold, optionally scoped to one store.
	ListBreachedRecords(ctx context.Context, storeID *uuid.UUID) ([]*StockRecord, error)

	// HasOpenReplenishmentDraft reports whether the store already has
	// an un-submitted AUTO_REPLENISH draft order.
	HasOpenReplenishmentDraft(ctx context.Context, storeID uuid.UUID) (bool, error)

	// CreateReplenishmentDraft inserts a DRAFT AUTO_REPLENISH order
	// with its line items in one transaction.
	CreateReplenishmentDraft(ctx context.Context, storeID uuid.UUID, orderNumber string, lines []DraftLine) (uuid.UUID, error)

	// CancelDraftsOlderThan moves stale AUTO_REPLENISH drafts to
	// CANCELLED and returns how many rows changed.
	CancelDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
