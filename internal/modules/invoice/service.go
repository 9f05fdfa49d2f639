package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier delivers a notification to a store's users. Implemented by
// the notification module and wired in at startup.
type Notifier interface {
	NotifyStore(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error

func (f NotifierFunc) NotifyStore(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error {
	return f(ctx, storeID, notifType, title, message, relatedID)
}

// Service defines the invoice ledger business logic.
type Service interface {
	// GenerateInvoice creates the invoice for a delivered order.
	// Admin-only; fails with AlreadyExists when the order is invoiced
	// and NotDelivered when its delivery has not completed.
	GenerateInvoice(ctx context.Context, actor auth.Principal, req GenerateInvoiceRequest) (*Invoice, error)

	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error)
	ListStoreInvoices(ctx context.Context, storeID string, status string) ([]*Invoice, error)
	ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error)

	// RecordPayment appends a payment and re-derives the invoice
	// status. Overpayment is rejected, never clamped. Drivers may only
	// record CASH against a delivery assigned to them.
	RecordPayment(ctx context.Context, actor auth.Principal, req RecordPaymentRequest) (*Invoice, error)

	CreateReturn(ctx context.Context, actor auth.Principal, req CreateReturnRequest) (*Return, error)
	GetReturn(ctx context.Context, id string) (*Return, error)
	ListStoreReturns(ctx context.Context, storeID string) ([]*Return, error)

	// ProcessReturn values the return at current prices and credits
	// the invoice. Admin-only; PENDING returns only.
	ProcessReturn(ctx context.Context, actor auth.Principal, id string) (*Return, *Invoice, error)
	RejectReturn(ctx context.Context, actor auth.Principal, id string, reason string) (*Return, error)

	// AutoGenerateInvoices invoices every delivered order that lacks
	// one, with default terms. Individual failures are collected.
	AutoGenerateInvoices(ctx context.Context) (*BatchReport, error)

	// SendPaymentReminders flips past-due invoices to OVERDUE and
	// notifies each affected store once. Re-running is a no-op for
	// invoices already flipped.
	SendPaymentReminders(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	log      *logrus.Logger
}

// NewService creates a new invoice service. notifier may be nil, in
// which case reminder notifications are skipped.
func NewService(repo Repository, notifier Notifier, log *logrus.Logger) Service {
	return &service{repo: repo, notifier: notifier, log: log}
}

func (s *service) GenerateInvoice(ctx context.Context, actor auth.Principal, req GenerateInvoiceRequest) (*Invoice, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "generate invoices"}
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, errs.Validationf("invalid order id: %v", err)
	}
	if req.Discount.IsNegative() || req.Tax.IsNegative() {
		return nil, errs.Validationf("discount and tax must not be negative")
	}
	return s.generate(ctx, orderID, req.Discount, req.Tax, req.DueDate)
}

func (s *service) generate(ctx context.Context, orderID uuid.UUID, discount, tax decimal.Decimal, dueDate *time.Time) (*Invoice, error) {
	exists, err := s.repo.InvoiceExistsForOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}
	if exists {
		return nil, &errs.AlreadyExistsError{Entity: "invoice", Ref: "order " + orderID.String()}
	}

	billing, err := s.repo.GetOrderBilling(ctx, orderID)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "order", Ref: orderID.String()}
	}
	if billing.DeliveryStatus != "DELIVERED" {
		return nil, &errs.NotDeliveredError{OrderID: orderID.String()}
	}

	now := time.Now()
	due := now.AddDate(0, 0, billing.PaymentTermsDays)
	if dueDate != nil {
		due = *dueDate
	}

	inv := &Invoice{
		ID:               uuid.New(),
		InvoiceNumber:    generateInvoiceNumber(),
		OrderID:          orderID,
		StoreID:          billing.StoreID,
		TotalAmount:      billing.ItemsTotal.Add(tax).Sub(discount),
		Tax:              tax,
		Discount:         discount,
		ReturnAdjustment: decimal.Zero,
		Status:           StatusPending,
		DueDate:          due,
		CreatedAt:        now,
	}
	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

func (s *service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "invoice", Ref: id}
	}
	return inv, nil
}

func (s *service) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "invoice", Ref: "order " + orderID}
	}
	return inv, nil
}

func (s *service) ListStoreInvoices(ctx context.Context, storeID string, status string) ([]*Invoice, error) {
	return s.repo.ListInvoicesByStore(ctx, storeID, strings.ToUpper(status))
}

func (s *service) ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID)
}

func (s *service) RecordPayment(ctx context.Context, actor auth.Principal, req RecordPaymentRequest) (*Invoice, error) {
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return nil, errs.Validationf("invalid invoice id: %v", err)
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, errs.Validationf("amount must be positive")
	}
	if !ValidMethod(req.Method) {
		return nil, errs.Validationf("unknown payment method %q", req.Method)
	}

	var deliveryID *uuid.UUID
	if req.DeliveryID != "" {
		did, err := uuid.Parse(req.DeliveryID)
		if err != nil {
			return nil, errs.Validationf("invalid delivery id: %v", err)
		}
		deliveryID = &did
	}

	// Drivers collect cash on the doorstep; anything else goes through
	// the office.
	if actor.Role == auth.RoleDriver {
		if req.Method != MethodCash {
			return nil, &errs.ForbiddenError{Role: actor.Role, Action: "record non-cash payments"}
		}
		if deliveryID == nil {
			return nil, errs.Validationf("delivery_id is required for driver payments")
		}
		driverID, _, err := s.repo.GetDeliveryDriver(ctx, *deliveryID)
		if err != nil {
			return nil, &errs.NotFoundError{Entity: "delivery", Ref: deliveryID.String()}
		}
		if driverID == nil || *driverID != actor.ID {
			return nil, &errs.ForbiddenError{Role: actor.Role, Action: "record payment for a delivery not assigned to you"}
		}
	}

	payment := &Payment{
		ID:            uuid.New(),
		InvoiceID:     invoiceID,
		DeliveryID:    deliveryID,
		Amount:        req.Amount,
		Method:        req.Method,
		CollectedBy:   actor.ID,
		TransactionID: req.TransactionID,
		ReceiptURL:    req.ReceiptURL,
		CreatedAt:     time.Now(),
	}
	inv, err := s.repo.RecordPayment(ctx, payment)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"amount":     req.Amount,
		"method":     req.Method,
		"status":     inv.Status,
	}).Info("payment recorded")
	return inv, nil
}

func (s *service) CreateReturn(ctx context.Context, actor auth.Principal, req CreateReturnRequest) (*Return, error) {
	deliveryID, err := uuid.Parse(req.DeliveryID)
	if err != nil {
		return nil, errs.Validationf("invalid delivery id: %v", err)
	}
	if len(req.Items) == 0 {
		return nil, errs.Validationf("a return requires at least one item")
	}

	_, storeID, err := s.repo.GetDeliveryDriver(ctx, deliveryID)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "delivery", Ref: req.DeliveryID}
	}

	ret := &Return{
		ID:         uuid.New(),
		DeliveryID: deliveryID,
		StoreID:    storeID,
		Status:     ReturnPending,
		ReturnedBy: actor.ID,
		Notes:      req.Notes,
		CreatedAt:  time.Now(),
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, errs.Validationf("invalid product id: %v", err)
		}
		if item.Quantity <= 0 {
			return nil, errs.Validationf("return quantity must be positive")
		}
		ri := ReturnItem{ID: uuid.New(), ProductID: productID, Quantity: item.Quantity, Reason: item.Reason}
		if item.ExpiryDate != "" {
			expiry, err := time.Parse("2006-01-02", item.ExpiryDate)
			if err != nil {
				return nil, errs.Validationf("invalid expiry_date: %v", err)
			}
			ri.ExpiryDate = &expiry
		}
		ret.Items = append(ret.Items, ri)
	}

	if err := s.repo.CreateReturn(ctx, ret); err != nil {
		return nil, fmt.Errorf("failed to create return: %w", err)
	}
	return ret, nil
}

func (s *service) GetReturn(ctx context.Context, id string) (*Return, error) {
	ret, err := s.repo.GetReturn(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "return", Ref: id}
	}
	return ret, nil
}

func (s *service) ListStoreReturns(ctx context.Context, storeID string) ([]*Return, error) {
	return s.repo.ListReturnsByStore(ctx, storeID)
}

func (s *service) ProcessReturn(ctx context.Context, actor auth.Principal, id string) (*Return, *Invoice, error) {
	if !actor.IsAdmin() {
		return nil, nil, &errs.ForbiddenError{Role: actor.Role, Action: "process returns"}
	}
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, errs.Validationf("invalid return id: %v", err)
	}
	cur, err := s.repo.GetReturn(ctx, id)
	if err != nil {
		return nil, nil, &errs.NotFoundError{Entity: "return", Ref: id}
	}
	if cur.Status != ReturnPending {
		return nil, nil, &errs.InvalidTransitionError{Entity: "return", Current: string(cur.Status), Attempted: string(ReturnProcessed)}
	}

	ret, inv, err := s.repo.ProcessReturn(ctx, returnID)
	if err != nil {
		return nil, nil, &errs.InvalidTransitionError{Entity: "return", Current: string(cur.Status), Attempted: string(ReturnProcessed)}
	}
	s.log.WithFields(logrus.Fields{
		"return_id":  returnID,
		"invoice_id": inv.ID,
		"adjustment": inv.ReturnAdjustment,
		"status":     inv.Status,
	}).Info("return processed")
	return ret, inv, nil
}

func (s *service) RejectReturn(ctx context.Context, actor auth.Principal, id string, reason string) (*Return, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "reject returns"}
	}
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, errs.Validationf("invalid return id: %v", err)
	}
	cur, err := s.repo.GetReturn(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "return", Ref: id}
	}
	if err := s.repo.RejectReturn(ctx, returnID, reason); err != nil {
		return nil, &errs.InvalidTransitionError{Entity: "return", Current: string(cur.Status), Attempted: string(ReturnRejected)}
	}
	return s.repo.GetReturn(ctx, id)
}

func (s *service) AutoGenerateInvoices(ctx context.Context) (*BatchReport, error) {
	orderIDs, err := s.repo.ListUninvoicedDeliveredOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan delivered orders: %w", err)
	}

	report := &BatchReport{OrdersProcessed: len(orderIDs)}
	for _, orderID := range orderIDs {
		if _, err := s.generate(ctx, orderID, decimal.Zero, decimal.Zero, nil); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("order %s: %v", orderID, err))
			s.log.WithError(err).WithField("order_id", orderID).Warn("invoice auto-generation failed")
			continue
		}
		report.InvoicesGenerated++
	}
	return report, nil
}

func (s *service) SendPaymentReminders(ctx context.Context) (int, error) {
	flipped, err := s.repo.MarkOverdue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}

	notified := 0
	for _, o := range flipped {
		if s.notifier == nil {
			continue
		}
		msg := fmt.Sprintf("Invoice %s is past its due date. Please arrange payment.", o.InvoiceNumber)
		if err := s.notifier.NotifyStore(ctx, o.StoreID, "PAYMENT_REMINDER", "Payment overdue", msg, o.ID); err != nil {
			s.log.WithError(err).WithField("invoice_id", o.ID).Warn("reminder notification failed")
			continue
		}
		notified++
	}
	if len(flipped) > 0 {
		s.log.WithFields(logrus.Fields{"overdue": len(flipped), "notified": notified}).Info("payment reminder sweep complete")
	}
	return notified, nil
}

func generateInvoiceNumber() string {
	month := time.Now().UTC().Format("200601")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("INV-%s-%s", month, suffix)
}
