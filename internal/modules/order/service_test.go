package order

import (
	"context"
	"errors"
	"testing"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
)

type fakeRepo struct {
	orders     map[uuid.UUID]*Order
	prices     map[uuid.UUID]float64
	sheets     map[uuid.UUID]*SheetSpec  // keyed by order id
	deliveries map[uuid.UUID]uuid.UUID   // order id → delivery id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:     map[uuid.UUID]*Order{},
		prices:     map[uuid.UUID]float64{},
		sheets:     map[uuid.UUID]*SheetSpec{},
		deliveries: map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o *Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	o, ok := f.orders[uid]
	if !ok {
		return nil, errors.New("no rows")
	}
	return o, nil
}

func (f *fakeRepo) ListOrdersByStore(ctx context.Context, storeID, status string) ([]*Order, error) {
	return nil, nil
}

func (f *fakeRepo) ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error) {
	var out []*Order
	for _, o := range f.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyTransition(ctx context.Context, orderID uuid.UUID, t Transition) error {
	o, ok := f.orders[orderID]
	if !ok {
		return errors.New("no rows")
	}
	if o.Status != t.From {
		return &errs.InvalidTransitionError{Entity: "order", Current: string(o.Status), Attempted: string(t.To)}
	}
	o.Status = t.To
	if t.Note != "" {
		o.StatusNote = t.Note
	}
	if len(t.PricedItems) > 0 {
		o.TotalAmount = t.TotalAmount
	}
	for _, e := range t.Effects {
		switch e.Kind {
		case EffectCreateKitchenSheet:
			if _, exists := f.sheets[orderID]; !exists {
				f.sheets[orderID] = e.Sheet
			}
		case EffectCreateDelivery:
			if _, exists := f.deliveries[orderID]; !exists {
				f.deliveries[orderID] = e.Delivery.DeliveryID
			}
		}
	}
	return nil
}

func (f *fakeRepo) GetProductPrice(ctx context.Context, productID uuid.UUID) (float64, bool, error) {
	price, ok := f.prices[productID]
	if !ok {
		return 0, false, errors.New("no rows")
	}
	return price, true, nil
}

func (f *fakeRepo) HasKitchenSheet(ctx context.Context, orderID uuid.UUID) (bool, error) {
	_, ok := f.sheets[orderID]
	return ok, nil
}

func (f *fakeRepo) FindDeliveryIDByOrder(ctx context.Context, orderID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := f.deliveries[orderID]
	return id, ok, nil
}

func (f *fakeRepo) GetStoreDropoff(ctx context.Context, storeID uuid.UUID) (string, *float64, *float64, error) {
	lat, lon := -15.4, 28.3
	return "1 Market St", &lat, &lon, nil
}

func seedOrder(f *fakeRepo, status Status, items int) (*Order, auth.Principal) {
	storeID := uuid.New()
	owner := auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &storeID}
	o := &Order{
		ID:      uuid.New(),
		StoreID: storeID,
		Type:    TypeManual,
		Status:  status,
	}
	for i := 0; i < items; i++ {
		pid := uuid.New()
		f.prices[pid] = 12.50
		o.Items = append(o.Items, &OrderItem{ID: uuid.New(), ProductID: pid, Quantity: 2})
	}
	f.orders[o.ID] = o
	return o, owner
}

var admin = auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}

func TestSubmitRequiresLineItems(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, owner := seedOrder(repo, StatusDraft, 0)

	_, err := svc.Submit(context.Background(), owner, o.ID.String())
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitByNonOwnerForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, _ := seedOrder(repo, StatusDraft, 1)

	otherStore := uuid.New()
	stranger := auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &otherStore}
	_, err := svc.Submit(context.Background(), stranger, o.ID.String())
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestApproveOnDraftIsInvalidTransition(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, _ := seedOrder(repo, StatusDraft, 1)

	_, err := svc.Approve(context.Background(), admin, o.ID.String())
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if ite.Current != string(StatusDraft) {
		t.Fatalf("expected current state DRAFT in error, got %s", ite.Current)
	}
}

func TestApproveSnapshotsPricesAndCreatesSheet(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, _ := seedOrder(repo, StatusPending, 2)

	approved, err := svc.Approve(context.Background(), admin, o.ID.String())
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}
	if approved.TotalAmount != 50.00 { // 2 items × qty 2 × 12.50
		t.Fatalf("expected total 50.00, got %.2f", approved.TotalAmount)
	}
	sheet, ok := repo.sheets[o.ID]
	if !ok {
		t.Fatal("expected kitchen sheet to be created with approval")
	}
	if len(sheet.Items) != 2 {
		t.Fatalf("expected 2 sheet items, got %d", len(sheet.Items))
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, owner := seedOrder(repo, StatusPending, 1)

	_, err := svc.Approve(context.Background(), owner, o.ID.String())
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestCancelForbiddenOncePhysicalWorkStarted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	for _, status := range []Status{StatusKitchenPrep, StatusReady, StatusInDelivery, StatusDelivered} {
		o, _ := seedOrder(repo, status, 1)
		_, err := svc.Cancel(context.Background(), admin, o.ID.String(), "changed my mind")
		var ite *errs.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("cancel from %s: expected invalid transition, got %v", status, err)
		}
	}
}

func TestCancelAllowedBeforeKitchenPrep(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	for _, status := range []Status{StatusDraft, StatusPending, StatusApproved} {
		o, owner := seedOrder(repo, status, 1)
		cancelled, err := svc.Cancel(context.Background(), owner, o.ID.String(), "")
		if err != nil {
			t.Fatalf("cancel from %s failed: %v", status, err)
		}
		if cancelled.Status != StatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
		}
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, _ := seedOrder(repo, StatusApproved, 1)

	_, err := svc.Reject(context.Background(), admin, o.ID.String(), "out of stock")
	var ite *errs.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestGenerateDeliveryIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	o, _ := seedOrder(repo, StatusReady, 1)

	first, err := svc.GenerateDelivery(context.Background(), o.ID.String())
	if err != nil {
		t.Fatalf("first generateDelivery failed: %v", err)
	}
	if first.Status != StatusInDelivery {
		t.Fatalf("expected IN_DELIVERY, got %s", first.Status)
	}
	created := repo.deliveries[o.ID]

	second, err := svc.GenerateDelivery(context.Background(), o.ID.String())
	if err != nil {
		t.Fatalf("second generateDelivery failed: %v", err)
	}
	if second.Status != StatusInDelivery {
		t.Fatalf("expected IN_DELIVERY after replay, got %s", second.Status)
	}
	if repo.deliveries[o.ID] != created {
		t.Fatal("expected replay to keep the existing delivery")
	}
	if len(repo.deliveries) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(repo.deliveries))
	}
}

func TestCreateOrderSubmitNeedsItems(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	storeID := uuid.New()
	owner := auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &storeID}

	_, err := svc.CreateOrder(context.Background(), owner, CreateOrderRequest{
		StoreID: storeID.String(),
		Submit:  true,
	})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderRejectsZeroQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	storeID := uuid.New()
	owner := auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &storeID}

	_, err := svc.CreateOrder(context.Background(), owner, CreateOrderRequest{
		StoreID: storeID.String(),
		Items:   []LineRequest{{ProductID: uuid.New().String(), Quantity: 0}},
	})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
