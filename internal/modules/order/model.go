package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusPending     Status = "PENDING"
	StatusApproved    Status = "APPROVED"
	StatusKitchenPrep Status = "KITCHEN_PREP"
	StatusReady       Status = "READY"
	StatusInDelivery  Status = "IN_DELIVERY"
	StatusDelivered   Status = "DELIVERED"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
	StatusRejected    Status = "REJECTED"
)

// Type indicates how the order originated.
type Type string

const (
	TypeManual        Type = "MANUAL"
	TypeAutoReplenish Type = "AUTO_REPLENISH"
)

// Order is an ordering request from a store. Orders are never deleted;
// CANCELLED and REJECTED are terminal markers.
type Order struct {
	ID          uuid.UUID    `json:"id"`
	StoreID     uuid.UUID    `json:"store_id"`
	OrderNumber string       `json:"order_number"`
	Type        Type         `json:"order_type"`
	Status      Status       `json:"status"`
	TotalAmount float64      `json:"total_amount"`
	Notes       string       `json:"notes,omitempty"`
	StatusNote  string       `json:"status_note,omitempty"`
	CreatedBy   *uuid.UUID   `json:"created_by,omitempty"` // nil for replenishment drafts
	Items       []*OrderItem `json:"items,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// OrderItem is a single line item. UnitPrice and LineTotal are zero
// until approval snapshots the catalog price.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	LineTotal float64   `json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// LineRequest describes one requested product during order creation.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the payload for creating a new order.
// Submit=true creates the order directly in PENDING.
type CreateOrderRequest struct {
	StoreID string        `json:"store_id"`
	Items   []LineRequest `json:"items"`
	Notes   string        `json:"notes,omitempty"`
	Submit  bool          `json:"submit,omitempty"`
}

// ReasonRequest carries an optional note for reject/cancel actions.
type ReasonRequest struct {
	Reason string `json:"reason,omitempty"`
}
