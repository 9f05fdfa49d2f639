package temperature

import (
	"time"

	"github.com/google/uuid"
)

// Compliance bands by storage location, degrees Celsius inclusive.
const (
	FridgeMin  = 2.0
	FridgeMax  = 8.0
	FreezerMin = -18.0
	FreezerMax = -12.0
	AmbientMin = 15.0
	AmbientMax = 25.0
)

// Log is one immutable temperature reading. IsCompliant is derived
// when the reading is recorded and never recomputed.
type Log struct {
	ID          uuid.UUID  `json:"id"`
	DeliveryID  *uuid.UUID `json:"delivery_id,omitempty"`
	StoreID     uuid.UUID  `json:"store_id"`
	Temperature float64    `json:"temperature"`
	Location    string     `json:"location"`
	RecordedBy  uuid.UUID  `json:"recorded_by"`
	IsManual    bool       `json:"is_manual"`
	SensorID    string     `json:"sensor_id,omitempty"`
	IsCompliant bool       `json:"is_compliant"`
	RecordedAt  time.Time  `json:"recorded_at"`
}

// LogRequest is the payload for recording a reading. ProductMin and
// ProductMax, when both set, override the location's default band.
type LogRequest struct {
	DeliveryID  string   `json:"delivery_id,omitempty"`
	StoreID     string   `json:"store_id"`
	Temperature float64  `json:"temperature"`
	Location    string   `json:"location"`
	IsManual    bool     `json:"is_manual"`
	SensorID    string   `json:"sensor_id,omitempty"`
	ProductMin  *float64 `json:"product_min,omitempty"`
	ProductMax  *float64 `json:"product_max,omitempty"`
}

// IsCompliant checks a reading against the band for its location. A
// product-specific range, when supplied, governs instead of the
// location default. Vehicle and free-text locations carry no default
// band and are compliant unless a product range says otherwise.
func IsCompliant(temp float64, location string, productMin, productMax *float64) bool {
	if productMin != nil && productMax != nil {
		return temp >= *productMin && temp <= *productMax
	}
	switch location {
	case "fridge":
		return temp >= FridgeMin && temp <= FridgeMax
	case "freezer":
		return temp >= FreezerMin && temp <= FreezerMax
	case "ambient":
		return temp >= AmbientMin && temp <= AmbientMax
	default:
		return true
	}
}
