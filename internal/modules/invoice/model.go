package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of an invoice. Derived from payments and the due date, never
// set arbitrarily.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPartial   Status = "PARTIAL"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// PaymentMethod enumerates accepted settlement channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodDirectDebit  PaymentMethod = "DIRECT_DEBIT"
	MethodOnline       PaymentMethod = "ONLINE_PAYMENT"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodDirectDebit, MethodOnline, MethodBankTransfer:
		return true
	}
	return false
}

// Invoice is the financial record derived from a delivered order.
// TotalAmount = items + tax - discount - returnAdjustment. PaidAmount
// is the sum of payments; Remaining may go negative when returns
// exceed the unpaid balance, which represents a store credit.
type Invoice struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	OrderID          uuid.UUID       `json:"order_id"`
	StoreID          uuid.UUID       `json:"store_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Tax              decimal.Decimal `json:"tax"`
	Discount         decimal.Decimal `json:"discount"`
	ReturnAdjustment decimal.Decimal `json:"return_adjustment"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	Status           Status          `json:"status"`
	DueDate          time.Time       `json:"due_date"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Remaining returns totalAmount - paidAmount.
func (i *Invoice) Remaining() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// DeriveStatus computes the status from amounts and the due date.
func DeriveStatus(total, paid decimal.Decimal, dueDate, now time.Time) Status {
	if total.Sub(paid).LessThanOrEqual(decimal.Zero) {
		return StatusPaid
	}
	if paid.GreaterThan(decimal.Zero) {
		return StatusPartial
	}
	if now.After(dueDate) {
		return StatusOverdue
	}
	return StatusPending
}

// Payment is immutable once created, except for receipt attachment.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	DeliveryID    *uuid.UUID      `json:"delivery_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	CollectedBy   uuid.UUID       `json:"collected_by"`
	TransactionID string          `json:"transaction_id,omitempty"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReturnStatus of a return request. PROCESSED and REJECTED are
// terminal.
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "PENDING"
	ReturnProcessed ReturnStatus = "PROCESSED"
	ReturnRejected  ReturnStatus = "REJECTED"
)

// Return holds items sent back from a delivery. Its value is priced at
// current product prices when processed, not when created.
type Return struct {
	ID         uuid.UUID    `json:"id"`
	DeliveryID uuid.UUID    `json:"delivery_id"`
	StoreID    uuid.UUID    `json:"store_id"`
	Status     ReturnStatus `json:"status"`
	Items      []ReturnItem `json:"items"`
	ReturnedBy uuid.UUID    `json:"returned_by"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ReturnItem is one returned product line.
type ReturnItem struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// GenerateInvoiceRequest is the payload for invoice generation.
type GenerateInvoiceRequest struct {
	OrderID  string          `json:"order_id"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	DueDate  *time.Time      `json:"due_date,omitempty"`
}

// RecordPaymentRequest is the payload for appending a payment.
type RecordPaymentRequest struct {
	InvoiceID     string          `json:"invoice_id"`
	DeliveryID    string          `json:"delivery_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	TransactionID string          `json:"transaction_id,omitempty"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
}

// CreateReturnRequest registers a return for later processing.
type CreateReturnRequest struct {
	DeliveryID string              `json:"delivery_id"`
	Items      []ReturnItemRequest `json:"items"`
	Notes      string              `json:"notes,omitempty"`
}

// ReturnItemRequest is one line of a return request.
type ReturnItemRequest struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// BatchReport summarizes an invoice auto-generation run.
type BatchReport struct {
	OrdersProcessed   int      `json:"orders_processed"`
	InvoicesGenerated int      `json:"invoices_generated"`
	Errors            []string `json:"errors,omitempty"`
}
