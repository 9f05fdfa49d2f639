package notification

import (
	"time"

	"github.com/google/uuid"
)

// Well-known notification types.
const (
	TypePaymentReminder  = "PAYMENT_REMINDER"
	TypeTemperatureAlert = "TEMPERATURE_ALERT"
	TypeOrderUpdate      = "ORDER_UPDATE"
	TypeLowStock         = "LOW_STOCK"
)

// Notification is one message addressed to one user. RelatedID points
// at the entity that triggered it (invoice, temperature log, order).
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// Event is the wire shape published to the broker alongside the
// persisted rows.
type Event struct {
	Type      string    `json:"type"`
	StoreID   string    `json:"store_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID string    `json:"related_id,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}
