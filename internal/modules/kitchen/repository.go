package kitchen

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderLine is a (product, quantity) pair read from an order when
// generating its sheet.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Repository defines data access for kitchen sheets.
type Repository interface {
	CreateSheet(ctx context.Context, sheet *KitchenSheet) error
	SheetExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	GetSheetByID(ctx context.Context, id string) (*KitchenSheet, error)
	GetSheetByOrder(ctx context.Context, orderID string) (*KitchenSheet, error)
	ListSheetsByStatus(ctx context.Context, status SheetStatus) ([]*KitchenSheet, error)

	// GetOrderForSheet returns the order's status and line items.
	GetOrderForSheet(ctx context.Context, orderID uuid.UUID) (status string, lines []OrderLine, err error)

	// ListApprovedOrdersWithoutSheets finds orders the batch job must cover.
	ListApprovedOrdersWithoutSheets(ctx context.Context) ([]uuid.UUID, error)

	// PackItem marks one item packed and, in the same transaction,
	// moves a PENDING sheet to IN_PROGRESS and an APPROVED parent order
	// to KITCHEN_PREP. Both follow-up updates are conditional so
	// repeated packs are no-ops on them.
	PackItem(ctx context.Context, sheetID, itemID uuid.UUID, batchNumber string, expiry time.Time, barcode, qrCode string) error

	// CompleteSheet commits sheet→COMPLETED and order KITCHEN_PREP→READY
	// in a single transaction.
	CompleteSheet(ctx context.Context, sheetID, orderID uuid.UUID) error
}
