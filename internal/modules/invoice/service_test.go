package invoice

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeOrder struct {
	billing  OrderBilling
	complete bool
}

type fakeDelivery struct {
	driverID *uuid.UUID
	storeID  uuid.UUID
}

type fakeRepo struct {
	orders     map[uuid.UUID]*fakeOrder
	invoices   map[uuid.UUID]*Invoice
	payments   map[uuid.UUID][]*Payment
	returns    map[uuid.UUID]*Return
	deliveries map[uuid.UUID]*fakeDelivery
	prices     map[uuid.UUID]decimal.Decimal
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:     make(map[uuid.UUID]*fakeOrder),
		invoices:   make(map[uuid.UUID]*Invoice),
		payments:   make(map[uuid.UUID][]*Payment),
		returns:    make(map[uuid.UUID]*Return),
		deliveries: make(map[uuid.UUID]*fakeDelivery),
		prices:     make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeRepo) InvoiceExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, inv := range f.invoices {
		if inv.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetOrderBilling(ctx context.Context, orderID uuid.UUID) (*OrderBilling, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("no rows")
	}
	b := o.billing
	return &b, nil
}

func (f *fakeRepo) CreateInvoice(ctx context.Context, inv *Invoice) error {
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	inv, ok := f.invoices[uid]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *inv
	cp.PaidAmount = f.paidSum(uid)
	return &cp, nil
}

func (f *fakeRepo) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	for _, inv := range f.invoices {
		if inv.OrderID.String() == orderID {
			return f.GetInvoice(ctx, inv.ID.String())
		}
	}
	return nil, errors.New("no rows")
}

func (f *fakeRepo) ListInvoicesByStore(ctx context.Context, storeID string, status string) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range f.invoices {
		if inv.StoreID.String() != storeID {
			continue
		}
		if status != "" && string(inv.Status) != status {
			continue
		}
		cp, _ := f.GetInvoice(ctx, inv.ID.String())
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeRepo) ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error) {
	uid, err := uuid.Parse(invoiceID)
	if err != nil {
		return nil, err
	}
	return f.payments[uid], nil
}

func (f *fakeRepo) paidSum(invoiceID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range f.payments[invoiceID] {
		sum = sum.Add(p.Amount)
	}
	return sum
}

func (f *fakeRepo) RecordPayment(ctx context.Context, p *Payment) (*Invoice, error) {
	inv, ok := f.invoices[p.InvoiceID]
	if !ok {
		return nil, errors.New("no rows")
	}
	paid := f.paidSum(p.InvoiceID)
	remaining := inv.TotalAmount.Sub(paid)
	if p.Amount.GreaterThan(remaining) {
		return nil, &errs.OverPaymentError{
			Attempted: p.Amount.StringFixed(2),
			Remaining: remaining.StringFixed(2),
		}
	}
	f.payments[p.InvoiceID] = append(f.payments[p.InvoiceID], p)
	inv.Status = DeriveStatus(inv.TotalAmount, paid.Add(p.Amount), inv.DueDate, time.Now())
	if inv.Status == StatusPaid {
		if o, ok := f.orders[inv.OrderID]; ok {
			o.complete = true
		}
	}
	return f.GetInvoice(ctx, p.InvoiceID.String())
}

func (f *fakeRepo) GetDeliveryDriver(ctx context.Context, deliveryID uuid.UUID) (*uuid.UUID, uuid.UUID, error) {
	d, ok := f.deliveries[deliveryID]
	if !ok {
		return nil, uuid.Nil, errors.New("no rows")
	}
	return d.driverID, d.storeID, nil
}

func (f *fakeRepo) CreateReturn(ctx context.Context, ret *Return) error {
	cp := *ret
	f.returns[ret.ID] = &cp
	return nil
}

func (f *fakeRepo) GetReturn(ctx context.Context, id string) (*Return, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	ret, ok := f.returns[uid]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *ret
	return &cp, nil
}

func (f *fakeRepo) ListReturnsByStore(ctx context.Context, storeID string) ([]*Return, error) {
	var out []*Return
	for _, ret := range f.returns {
		if ret.StoreID.String() == storeID {
			cp := *ret
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ProcessReturn(ctx context.Context, returnID uuid.UUID) (*Return, *Invoice, error) {
	ret, ok := f.returns[returnID]
	if !ok || ret.Status != ReturnPending {
		return nil, nil, errors.New("no rows")
	}

	value := decimal.Zero
	for _, item := range ret.Items {
		price := f.prices[item.ProductID]
		value = value.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	var inv *Invoice
	for _, candidate := range f.invoices {
		if d, ok := f.deliveries[ret.DeliveryID]; ok && candidate.StoreID == d.storeID {
			inv = candidate
			break
		}
	}
	if inv == nil {
		return nil, nil, errors.New("no invoice for return")
	}

	itemsTotal := inv.TotalAmount.Add(inv.ReturnAdjustment).Add(inv.Discount).Sub(inv.Tax)
	inv.ReturnAdjustment = inv.ReturnAdjustment.Add(value)
	inv.TotalAmount = itemsTotal.Add(inv.Tax).Sub(inv.Discount).Sub(inv.ReturnAdjustment)
	inv.Status = DeriveStatus(inv.TotalAmount, f.paidSum(inv.ID), inv.DueDate, time.Now())
	ret.Status = ReturnProcessed

	retCp, invCp := *ret, *inv
	invCp.PaidAmount = f.paidSum(inv.ID)
	return &retCp, &invCp, nil
}

func (f *fakeRepo) RejectReturn(ctx context.Context, returnID uuid.UUID, reason string) error {
	ret, ok := f.returns[returnID]
	if !ok || ret.Status != ReturnPending {
		return errors.New("no rows")
	}
	ret.Status = ReturnRejected
	if reason != "" {
		ret.Notes = reason
	}
	return nil
}

func (f *fakeRepo) ListUninvoicedDeliveredOrders(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, o := range f.orders {
		if o.billing.DeliveryStatus != "DELIVERED" {
			continue
		}
		invoiced, _ := f.InvoiceExistsForOrder(ctx, id)
		if !invoiced {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeRepo) MarkOverdue(ctx context.Context, now time.Time) ([]OverdueInvoice, error) {
	var flipped []OverdueInvoice
	for _, inv := range f.invoices {
		if (inv.Status == StatusPending || inv.Status == StatusPartial) && inv.DueDate.Before(now) {
			inv.Status = StatusOverdue
			flipped = append(flipped, OverdueInvoice{ID: inv.ID, StoreID: inv.StoreID, InvoiceNumber: inv.InvoiceNumber})
		}
	}
	return flipped, nil
}

type recordingNotifier struct{ sent []uuid.UUID }

func (n *recordingNotifier) NotifyStore(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error {
	n.sent = append(n.sent, relatedID)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func admin() auth.Principal  { return auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin} }
func driver() auth.Principal { return auth.Principal{ID: uuid.New(), Role: auth.RoleDriver} }

func seedDeliveredOrder(repo *fakeRepo, itemsTotal string, terms int) uuid.UUID {
	orderID := uuid.New()
	repo.orders[orderID] = &fakeOrder{billing: OrderBilling{
		StoreID:          uuid.New(),
		OrderStatus:      "DELIVERED",
		DeliveryStatus:   "DELIVERED",
		ItemsTotal:       decimal.RequireFromString(itemsTotal),
		PaymentTermsDays: terms,
	}}
	return orderID
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGenerateInvoiceRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100", 14)

	_, err := svc.GenerateInvoice(context.Background(), driver(), GenerateInvoiceRequest{OrderID: orderID.String()})
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestGenerateInvoiceComputesTotalAndDueDate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "200.00", 14)

	inv, err := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{
		OrderID:  orderID.String(),
		Tax:      dec("20.00"),
		Discount: dec("5.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.TotalAmount.Equal(dec("215.00")) {
		t.Errorf("total = %s, want 215.00", inv.TotalAmount)
	}
	wantDue := time.Now().AddDate(0, 0, 14)
	if inv.DueDate.Sub(wantDue) > time.Minute || wantDue.Sub(inv.DueDate) > time.Minute {
		t.Errorf("due date = %v, want ~%v", inv.DueDate, wantDue)
	}
	if inv.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", inv.Status)
	}
}

func TestGenerateInvoiceTwiceFails(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100", 7)

	if _, err := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()}); err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	_, err := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})
	var ae *errs.AlreadyExistsError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AlreadyExistsError, got %v", err)
	}
}

func TestGenerateInvoiceRequiresDeliveredOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())

	orderID := uuid.New()
	repo.orders[orderID] = &fakeOrder{billing: OrderBilling{
		StoreID: uuid.New(), OrderStatus: "IN_DELIVERY", DeliveryStatus: "IN_TRANSIT",
		ItemsTotal: dec("50"), PaymentTermsDays: 7,
	}}

	_, err := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})
	var nde *errs.NotDeliveredError
	if !errors.As(err, &nde) {
		t.Fatalf("expected NotDeliveredError, got %v", err)
	}
}

func TestRecordPaymentDerivesPartialThenPaid(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	got, err := svc.RecordPayment(context.Background(), admin(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), Amount: dec("40.00"), Method: MethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPartial {
		t.Errorf("status = %s, want PARTIAL", got.Status)
	}
	if !got.PaidAmount.Add(got.Remaining()).Equal(got.TotalAmount) {
		t.Errorf("paid + remaining != total")
	}

	got, err = svc.RecordPayment(context.Background(), admin(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), Amount: dec("60.00"), Method: MethodCash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPaid {
		t.Errorf("status = %s, want PAID", got.Status)
	}
	if !repo.orders[orderID].complete {
		t.Error("full payment should complete the order")
	}
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	_, err := svc.RecordPayment(context.Background(), admin(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), Amount: dec("150.00"), Method: MethodCash,
	})
	var ope *errs.OverPaymentError
	if !errors.As(err, &ope) {
		t.Fatalf("expected OverPaymentError, got %v", err)
	}

	// The rejected payment must leave the invoice untouched.
	after, _ := svc.GetInvoice(context.Background(), inv.ID.String())
	if !after.PaidAmount.Equal(decimal.Zero) || after.Status != StatusPending {
		t.Errorf("rejected payment mutated the invoice: paid=%s status=%s", after.PaidAmount, after.Status)
	}
}

func TestDriverPaymentMustBeCash(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	_, err := svc.RecordPayment(context.Background(), driver(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), Amount: dec("10.00"), Method: MethodBankTransfer,
	})
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestDriverPaymentAgainstForeignDeliveryForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	otherDriver := uuid.New()
	deliveryID := uuid.New()
	repo.deliveries[deliveryID] = &fakeDelivery{driverID: &otherDriver, storeID: inv.StoreID}

	_, err := svc.RecordPayment(context.Background(), driver(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), DeliveryID: deliveryID.String(),
		Amount: dec("10.00"), Method: MethodCash,
	})
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestProcessReturnCreditsInvoice(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	productID := uuid.New()
	repo.prices[productID] = dec("10.00")
	deliveryID := uuid.New()
	repo.deliveries[deliveryID] = &fakeDelivery{storeID: inv.StoreID}

	ret, err := svc.CreateReturn(context.Background(), admin(), CreateReturnRequest{
		DeliveryID: deliveryID.String(),
		Items:      []ReturnItemRequest{{ProductID: productID.String(), Quantity: 3, Reason: "expired"}},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	_, updated, err := svc.ProcessReturn(context.Background(), admin(), ret.ID.String())
	if err != nil {
		t.Fatalf("process return: %v", err)
	}
	if !updated.ReturnAdjustment.Equal(dec("30.00")) {
		t.Errorf("adjustment = %s, want 30.00", updated.ReturnAdjustment)
	}
	if !updated.TotalAmount.Equal(dec("70.00")) {
		t.Errorf("total = %s, want 70.00", updated.TotalAmount)
	}
}

func TestProcessReturnTwiceFails(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	productID := uuid.New()
	repo.prices[productID] = dec("5.00")
	deliveryID := uuid.New()
	repo.deliveries[deliveryID] = &fakeDelivery{storeID: inv.StoreID}

	ret, _ := svc.CreateReturn(context.Background(), admin(), CreateReturnRequest{
		DeliveryID: deliveryID.String(),
		Items:      []ReturnItemRequest{{ProductID: productID.String(), Quantity: 1}},
	})
	if _, _, err := svc.ProcessReturn(context.Background(), admin(), ret.ID.String()); err != nil {
		t.Fatalf("first process: %v", err)
	}
	_, _, err := svc.ProcessReturn(context.Background(), admin(), ret.ID.String())
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError on second process, got %v", err)
	}
}

func TestReturnBeyondPaymentsLeavesInvoicePaid(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())
	orderID := seedDeliveredOrder(repo, "100.00", 7)
	inv, _ := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: orderID.String()})

	if _, err := svc.RecordPayment(context.Background(), admin(), RecordPaymentRequest{
		InvoiceID: inv.ID.String(), Amount: dec("100.00"), Method: MethodCash,
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	productID := uuid.New()
	repo.prices[productID] = dec("20.00")
	deliveryID := uuid.New()
	repo.deliveries[deliveryID] = &fakeDelivery{storeID: inv.StoreID}

	ret, _ := svc.CreateReturn(context.Background(), admin(), CreateReturnRequest{
		DeliveryID: deliveryID.String(),
		Items:      []ReturnItemRequest{{ProductID: productID.String(), Quantity: 2}},
	})
	_, updated, err := svc.ProcessReturn(context.Background(), admin(), ret.ID.String())
	if err != nil {
		t.Fatalf("process return: %v", err)
	}
	// Total drops to 60 with 100 paid: a 40 credit, invoice stays PAID.
	if !updated.TotalAmount.Equal(dec("60.00")) {
		t.Errorf("total = %s, want 60.00", updated.TotalAmount)
	}
	if updated.Status != StatusPaid {
		t.Errorf("status = %s, want PAID", updated.Status)
	}
	if !updated.Remaining().IsNegative() {
		t.Errorf("expected negative remaining (store credit), got %s", updated.Remaining())
	}
}

func TestAutoGenerateInvoicesCountsAndSkipsInvoiced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())

	seedDeliveredOrder(repo, "10.00", 7)
	seedDeliveredOrder(repo, "20.00", 7)
	invoiced := seedDeliveredOrder(repo, "30.00", 7)
	if _, err := svc.GenerateInvoice(context.Background(), admin(), GenerateInvoiceRequest{OrderID: invoiced.String()}); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	report, err := svc.AutoGenerateInvoices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OrdersProcessed != 2 || report.InvoicesGenerated != 2 {
		t.Errorf("report = %+v, want 2 processed / 2 generated", report)
	}
}

func TestPaymentRemindersNotifyOnlyFlippedInvoices(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, quietLogger())

	pastDue := &Invoice{
		ID: uuid.New(), InvoiceNumber: "INV-202608-AAAA", OrderID: uuid.New(), StoreID: uuid.New(),
		TotalAmount: dec("50.00"), Status: StatusPending, DueDate: time.Now().AddDate(0, 0, -3),
	}
	current := &Invoice{
		ID: uuid.New(), InvoiceNumber: "INV-202608-BBBB", OrderID: uuid.New(), StoreID: uuid.New(),
		TotalAmount: dec("50.00"), Status: StatusPending, DueDate: time.Now().AddDate(0, 0, 3),
	}
	repo.invoices[pastDue.ID] = pastDue
	repo.invoices[current.ID] = current

	notified, err := svc.SendPaymentReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 1 || len(notifier.sent) != 1 || notifier.sent[0] != pastDue.ID {
		t.Fatalf("expected one reminder for the past-due invoice, got %d", notified)
	}

	// A second sweep must not re-notify invoices already OVERDUE.
	notified, err = svc.SendPaymentReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 0 {
		t.Errorf("second sweep notified %d invoices, want 0", notified)
	}
}
