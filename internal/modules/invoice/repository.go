package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderBilling is the order-side data invoice generation reads.
type OrderBilling struct {
	StoreID          uuid.UUID
	OrderStatus      string
	DeliveryStatus   string
	ItemsTotal       decimal.Decimal
	PaymentTermsDays int
}

// OverdueInvoice is one row flipped to OVERDUE by the reminder sweep.
type OverdueInvoice struct {
	ID            uuid.UUID
	StoreID       uuid.UUID
	InvoiceNumber string
}

// Repository defines data access for invoices, payments and returns.
type Repository interface {
	InvoiceExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	GetOrderBilling(ctx context.Context, orderID uuid.UUID) (*OrderBilling, error)
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error)
	ListInvoicesByStore(ctx context.Context, storeID string, status string) ([]*Invoice, error)
	ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error)

	// RecordPayment locks the invoice row, rejects overpayment, inserts
	// the payment, re-derives the invoice status, and when the invoice
	// becomes fully paid advances the parent order to COMPLETED. All in
	// one transaction.
	RecordPayment(ctx context.Context, p *Payment) (*Invoice, error)

	// GetDeliveryDriver returns the assigned driver of a delivery.
	GetDeliveryDriver(ctx context.Context, deliveryID uuid.UUID) (*uuid.UUID, uuid.UUID, error)

	CreateReturn(ctx context.Context, ret *Return) error
	GetReturn(ctx context.Context, id string) (*Return, error)
	ListReturnsByStore(ctx context.Context, storeID string) ([]*Return, error)

	// ProcessReturn values the return at current product prices, adds
	// the value to the invoice's return adjustment, re-derives invoice
	// status and marks the return PROCESSED in one transaction. The
	// sql.ErrNoRows sentinel signals the return was not PENDING.
	ProcessReturn(ctx context.Context, returnID uuid.UUID) (*Return, *Invoice, error)

	RejectReturn(ctx context.Context, returnID uuid.UUID, reason string) error

	// ListUninvoicedDeliveredOrders feeds the auto-generation batch.
	ListUninvoicedDeliveredOrders(ctx context.Context) ([]uuid.UUID, error)

	// MarkOverdue flips past-due PENDING/PARTIAL invoices to OVERDUE
	// and returns only the rows changed by this call.
	MarkOverdue(ctx context.Context, now time.Time) ([]OverdueInvoice, error)
}
