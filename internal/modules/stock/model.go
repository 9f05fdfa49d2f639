package stock

import (
	"time"

	"github.com/google/uuid"
)

// Store is a receiving location for orders and deliveries.
type Store struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address,omitempty"`
	Lat              *float64  `json:"lat,omitempty"`
	Lon              *float64  `json:"lon,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StockRecord tracks one product's level at one store. IsLowStock is
// derived, never stored.
type StockRecord struct {
	ID           uuid.UUID `json:"id"`
	StoreID      uuid.UUID `json:"store_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	CurrentLevel int       `json:"current_level"`
	Threshold    int       `json:"threshold"`
	LastUpdated  time.Time `json:"last_updated"`
}

// IsLowStock reports whether the level has fallen below the threshold.
func (r *StockRecord) IsLowStock() bool { return r.CurrentLevel < r.Threshold }

// CreateStoreRequest is the payload for registering a store.
type CreateStoreRequest struct {
	Name             string   `json:"name"`
	Address          string   `json:"address,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	PaymentTermsDays int      `json:"payment_terms_days"`
}

// UpdateStockRequest sets a product's level and threshold at a store.
type UpdateStockRequest struct {
	ProductID    string `json:"product_id"`
	CurrentLevel int    `json:"current_level"`
	Threshold    int    `json:"threshold"`
}

// BulkUpdateStockRequest applies several stock updates in one call.
type BulkUpdateStockRequest struct {
	Updates []UpdateStockRequest `json:"updates"`
}

// DraftLine is one product deficit feeding a replenishment draft.
type DraftLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ReplenishmentReport summarizes one replenishment run.
type ReplenishmentReport struct {
	StoresChecked  int      `json:"stores_checked"`
	OrdersCreated  int      `json:"orders_created"`
	StoresSkipped  int      `json:"stores_skipped"`
	CreatedOrderID []string `json:"created_order_ids,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}
