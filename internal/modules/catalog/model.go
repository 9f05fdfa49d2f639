package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is an item the kitchen prepares and stores sell.
// StorageMin/StorageMax describe the product-specific temperature band
// in °C; both nil means the location default governs compliance.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	SKU           string    `json:"sku,omitempty"`
	ShelfLifeDays int       `json:"shelf_life_days"`
	StorageMin    *float64  `json:"storage_min,omitempty"`
	StorageMax    *float64  `json:"storage_max,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProductRequest is the payload for adding a product to the catalog.
type CreateProductRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	ShelfLifeDays int      `json:"shelf_life_days"`
	StorageMin    *float64 `json:"storage_min,omitempty"`
	StorageMax    *float64  `json:"storage_max,omitempty"`
}

// UpdatePriceRequest is the payload for repricing a product.
type UpdatePriceRequest struct {
	Price float64 `json:"price"`
}
