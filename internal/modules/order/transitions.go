package order

import (
	"time"

	"github.com/google/uuid"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusDraft:       {StatusPending, StatusCancelled},
	StatusPending:     {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:    {StatusKitchenPrep, StatusCancelled},
	StatusKitchenPrep: {StatusReady},
	StatusReady:       {StatusInDelivery},
	StatusInDelivery:  {StatusDelivered},
	StatusDelivered:   {StatusCompleted},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusRejected:    {},
}

// CanTransition returns true if moving from current to next is legal.
func CanTransition(current, next Status) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// EffectKind names a side effect applied together with a transition.
type EffectKind string

const (
	EffectCreateKitchenSheet EffectKind = "CREATE_KITCHEN_SHEET"
	EffectCreateDelivery     EffectKind = "CREATE_DELIVERY"
)

// SheetItemSpec is one packing-checklist row to create.
type SheetItemSpec struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// SheetSpec describes the kitchen sheet a transition creates.
type SheetSpec struct {
	SheetID uuid.UUID
	Items   []SheetItemSpec
}

// DeliverySpec describes the delivery row a transition creates.
type DeliverySpec struct {
	DeliveryID    uuid.UUID
	StoreID       uuid.UUID
	ScheduledDate time.Time
	Address       string
	Lat           *float64
	Lon           *float64
}

// Effect is a single side effect of a transition.
type Effect struct {
	Kind     EffectKind
	Sheet    *SheetSpec
	Delivery *DeliverySpec
}

// Transition is the full result of validating a pipeline action: the
// status change, any price snapshot, and the derivative rows to create.
// The repository applies all of it in one transaction so the order can
// never advance without its side effects.
type Transition struct {
	From        Status
	To          Status
	Note        string
	PricedItems []*OrderItem // set by approve; updates unit_price/line_total
	TotalAmount float64      // set alongside PricedItems
	Effects     []Effect
}
