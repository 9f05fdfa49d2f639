package stock

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type stockKey struct{ store, product uuid.UUID }

type fakeRepo struct {
	stores  map[uuid.UUID]*Store
	records map[stockKey]*StockRecord

	// open AUTO_REPLENISH drafts by store, as the orders table would
	// hold them
	drafts map[uuid.UUID][]draftOrder
}

type draftOrder struct {
	id        uuid.UUID
	status    string
	createdAt time.Time
	lines     []DraftLine
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stores:  make(map[uuid.UUID]*Store),
		records: make(map[stockKey]*StockRecord),
		drafts:  make(map[uuid.UUID][]draftOrder),
	}
}

func (f *fakeRepo) CreateStore(ctx context.Context, s *Store) error {
	f.stores[s.ID] = s
	return nil
}

func (f *fakeRepo) GetStore(ctx context.Context, id string) (*Store, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	s, ok := f.stores[uid]
	if !ok {
		return nil, errors.New("no rows")
	}
	return s, nil
}

func (f *fakeRepo) ListStores(ctx context.Context) ([]*Store, error) {
	var out []*Store
	for _, s := range f.stores {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStore(ctx context.Context, s *Store) error {
	f.stores[s.ID] = s
	return nil
}

func (f *fakeRepo) GetStock(ctx context.Context, storeID, productID uuid.UUID) (*StockRecord, error) {
	rec, ok := f.records[stockKey{storeID, productID}]
	if !ok {
		return nil, errors.New("no rows")
	}
	return rec, nil
}

func (f *fakeRepo) ListStoreStock(ctx context.Context, storeID string) ([]*StockRecord, error) {
	var out []*StockRecord
	for _, rec := range f.records {
		if rec.StoreID.String() == storeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertStock(ctx context.Context, storeID, productID uuid.UUID, level, threshold int) error {
	key := stockKey{storeID, productID}
	f.records[key] = &StockRecord{
		ID: uuid.New(), StoreID: storeID, ProductID: productID,
		CurrentLevel: level, Threshold: threshold, LastUpdated: time.Now(),
	}
	return nil
}

func (f *fakeRepo) ListBreachedRecords(ctx context.Context, storeID *uuid.UUID) ([]*StockRecord, error) {
	var out []*StockRecord
	for _, rec := range f.records {
		if storeID != nil && rec.StoreID != *storeID {
			continue
		}
		if rec.CurrentLevel < rec.Threshold {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) HasOpenReplenishmentDraft(ctx context.Context, storeID uuid.UUID) (bool, error) {
	for _, d := range f.drafts[storeID] {
		if d.status == "DRAFT" {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateReplenishmentDraft(ctx context.Context, storeID uuid.UUID, orderNumber string, lines []DraftLine) (uuid.UUID, error) {
	id := uuid.New()
	f.drafts[storeID] = append(f.drafts[storeID], draftOrder{
		id: id, status: "DRAFT", createdAt: time.Now(), lines: lines,
	})
	return id, nil
}

func (f *fakeRepo) CancelDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for storeID, orders := range f.drafts {
		for i, d := range orders {
			if d.status == "DRAFT" && d.createdAt.Before(cutoff) {
				f.drafts[storeID][i].status = "CANCELLED"
				n++
			}
		}
	}
	return n, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func admin() auth.Principal { return auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin} }

func storeActor(storeID uuid.UUID) auth.Principal {
	return auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &storeID}
}

func TestCreateStoreRequiresAdmin(t *testing.T) {
	svc := NewService(newFakeRepo(), quietLogger())
	_, err := svc.CreateStore(context.Background(), storeActor(uuid.New()),
		CreateStoreRequest{Name: "North Depot"})
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestUpdateStockByOtherStoreForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, quietLogger())

	targetStore := uuid.New()
	_, err := svc.UpdateStock(context.Background(), storeActor(uuid.New()), targetStore.String(),
		UpdateStockRequest{ProductID: uuid.NewString(), CurrentLevel: 5, Threshold: 10})
	var fe *errs.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestUpdateStockRejectsNegativeLevel(t *testing.T) {
	svc := NewService(newFakeRepo(), quietLogger())
	_, err := svc.UpdateStock(context.Background(), admin(), uuid.NewString(),
		UpdateStockRequest{ProductID: uuid.NewString(), CurrentLevel: -1, Threshold: 10})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReplenishmentCreatesOneDraftPerStore(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, quietLogger())

	storeA, storeB := uuid.New(), uuid.New()
	repo.UpsertStock(context.Background(), storeA, uuid.New(), 2, 10)
	repo.UpsertStock(context.Background(), storeA, uuid.New(), 0, 5)
	repo.UpsertStock(context.Background(), storeB, uuid.New(), 1, 4)
	repo.UpsertStock(context.Background(), storeB, uuid.New(), 20, 4) // healthy

	report, err := svc.CheckAndGenerateDraftOrders(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OrdersCreated != 2 {
		t.Errorf("orders created = %d, want 2", report.OrdersCreated)
	}
	if len(repo.drafts[storeA]) != 1 || len(repo.drafts[storeB]) != 1 {
		t.Fatalf("each breached store should get exactly one draft")
	}
	// Deficit quantities: threshold - current.
	linesA := repo.drafts[storeA][0].lines
	if len(linesA) != 2 {
		t.Fatalf("store A draft has %d lines, want 2", len(linesA))
	}
	for _, line := range linesA {
		if line.Quantity != 8 && line.Quantity != 5 {
			t.Errorf("unexpected deficit quantity %d", line.Quantity)
		}
	}
}

func TestReplenishmentIsIdempotentAcrossRuns(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, quietLogger())

	storeID := uuid.New()
	repo.UpsertStock(context.Background(), storeID, uuid.New(), 1, 10)

	first, err := svc.CheckAndGenerateDraftOrders(context.Background(), "")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.CheckAndGenerateDraftOrders(context.Background(), "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.OrdersCreated != 1 || second.OrdersCreated != 0 {
		t.Errorf("runs created %d then %d drafts, want 1 then 0", first.OrdersCreated, second.OrdersCreated)
	}
	if second.StoresSkipped != 1 {
		t.Errorf("second run should skip the store with an open draft")
	}
	if len(repo.drafts[storeID]) != 1 {
		t.Errorf("duplicate drafts accumulated: %d", len(repo.drafts[storeID]))
	}
}

func TestReplenishmentScopedToStore(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, quietLogger())

	storeA, storeB := uuid.New(), uuid.New()
	repo.UpsertStock(context.Background(), storeA, uuid.New(), 0, 3)
	repo.UpsertStock(context.Background(), storeB, uuid.New(), 0, 3)

	report, err := svc.CheckAndGenerateDraftOrders(context.Background(), storeA.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OrdersCreated != 1 {
		t.Errorf("orders created = %d, want 1", report.OrdersCreated)
	}
	if len(repo.drafts[storeB]) != 0 {
		t.Errorf("out-of-scope store should not get a draft")
	}
}

func TestCancelExpiredDraftOrders(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, quietLogger())

	storeID := uuid.New()
	repo.drafts[storeID] = []draftOrder{
		{id: uuid.New(), status: "DRAFT", createdAt: time.Now().AddDate(0, 0, -10)},
		{id: uuid.New(), status: "DRAFT", createdAt: time.Now()},
	}

	count, err := svc.CancelExpiredDraftOrders(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("cancelled = %d, want 1", count)
	}
	if repo.drafts[storeID][0].status != "CANCELLED" {
		t.Errorf("stale draft should be CANCELLED")
	}
	if repo.drafts[storeID][1].status != "DRAFT" {
		t.Errorf("fresh draft should stay DRAFT")
	}
}

func TestCancelExpiredRejectsNonPositiveWindow(t *testing.T) {
	svc := NewService(newFakeRepo(), quietLogger())
	if _, err := svc.CancelExpiredDraftOrders(context.Background(), 0); err == nil {
		t.Fatal("expected error for days_old = 0")
	}
}
