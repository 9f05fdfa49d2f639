package kitchen

import (
	"time"

	"github.com/google/uuid"
)

// SheetStatus represents the lifecycle state of a kitchen sheet.
type SheetStatus string

const (
	SheetPending    SheetStatus = "PENDING"
	SheetInProgress SheetStatus = "IN_PROGRESS"
	SheetCompleted  SheetStatus = "COMPLETED"
	SheetCancelled  SheetStatus = "CANCELLED"
)

// KitchenSheet is the packing checklist derived from an approved order.
// Exactly one non-cancelled sheet exists per order.
type KitchenSheet struct {
	ID          uuid.UUID    `json:"id"`
	OrderID     uuid.UUID    `json:"order_id"`
	Status      SheetStatus  `json:"status"`
	Items       []*SheetItem `json:"items,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SheetItem is one packing row. Items keep the order's line sequence
// via Position. Batch, expiry, and the generated barcode/QR tokens are
// filled when the item is packed.
type SheetItem struct {
	ID          uuid.UUID  `json:"id"`
	SheetID     uuid.UUID  `json:"sheet_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	Quantity    int        `json:"quantity"`
	Position    int        `json:"position"`
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Barcode     string     `json:"barcode,omitempty"`
	QRCode      string     `json:"qr_code,omitempty"`
	IsPacked    bool       `json:"is_packed"`
	PackedAt    *time.Time `json:"packed_at,omitempty"`
}

// PackItemRequest is the payload for marking an item packed.
type PackItemRequest struct {
	BatchNumber string `json:"batch_number"`
	ExpiryDate  string `json:"expiry_date"` // YYYY-MM-DD or RFC3339
}

// BatchReport summarises an auto-generation run. Individual failures
// are collected, never fatal to the batch.
type BatchReport struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
