package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a delivery.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAssigned  Status = "ASSIGNED"
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

// Delivery represents the physical transport of one order to a store.
// A driver is required once the delivery leaves PENDING.
type Delivery struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	StoreID       uuid.UUID  `json:"store_id"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	Status        Status     `json:"status"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Address       string     `json:"delivery_address,omitempty"`
	Lat           *float64   `json:"delivery_lat,omitempty"`
	Lon           *float64   `json:"delivery_lon,omitempty"`
	Signature     string     `json:"signature,omitempty"`
	Photo         string     `json:"delivery_photo,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AssignRequest is the payload for assigning a driver.
type AssignRequest struct {
	DriverID string `json:"driver_id"`
}

// CompleteRequest is the proof-of-delivery payload.
type CompleteRequest struct {
	Signature string `json:"signature,omitempty"`
	Photo     string `json:"delivery_photo,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// FailRequest carries the reason a delivery could not be made.
type FailRequest struct {
	Reason string `json:"reason,omitempty"`
}
