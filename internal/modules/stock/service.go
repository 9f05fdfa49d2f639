package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Service defines store and stock management business logic, including
// the replenishment engine.
type Service interface {
	CreateStore(ctx context.Context, actor auth.Principal, req CreateStoreRequest) (*Store, error)
	GetStore(ctx context.Context, id string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)

	// UpdateStock sets the level and threshold for one product at a
	// store. Store owners may only touch their own store.
	UpdateStock(ctx context.Context, actor auth.Principal, storeID string, req UpdateStockRequest) (*StockRecord, error)

	// BulkUpdateStock applies several updates; individual failures are
	// collected, not fatal.
	BulkUpdateStock(ctx context.Context, actor auth.Principal, storeID string, req BulkUpdateStockRequest) ([]*StockRecord, []string, error)

	ListStoreStock(ctx context.Context, storeID string) ([]*StockRecord, error)
	ListLowStock(ctx context.Context, storeID string) ([]*StockRecord, error)

	// CheckAndGenerateDraftOrders creates at most one AUTO_REPLENISH
	// draft per store whose stock breaches its thresholds. Safe to run
	// repeatedly; stores with an open draft are skipped.
	CheckAndGenerateDraftOrders(ctx context.Context, storeID string) (*ReplenishmentReport, error)

	// CancelExpiredDraftOrders cancels AUTO_REPLENISH drafts older
	// than daysOld and returns the count.
	CancelExpiredDraftOrders(ctx context.Context, daysOld int) (int64, error)
}

type service struct {
	repo Repository
	log  *logrus.Logger
}

func NewService(repo Repository, log *logrus.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) CreateStore(ctx context.Context, actor auth.Principal, req CreateStoreRequest) (*Store, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "create stores"}
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errs.Validationf("store name is required")
	}
	if req.PaymentTermsDays < 0 {
		return nil, errs.Validationf("payment_terms_days must not be negative")
	}
	store := &Store{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(req.Name),
		Address:          req.Address,
		Lat:              req.Lat,
		Lon:              req.Lon,
		PaymentTermsDays: req.PaymentTermsDays,
		IsActive:         true,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return store, nil
}

func (s *service) GetStore(ctx context.Context, id string) (*Store, error) {
	store, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "store", Ref: id}
	}
	return store, nil
}

func (s *service) ListStores(ctx context.Context) ([]*Store, error) {
	return s.repo.ListStores(ctx)
}

func (s *service) UpdateStock(ctx context.Context, actor auth.Principal, storeID string, req UpdateStockRequest) (*StockRecord, error) {
	sid, err := uuid.Parse(storeID)
	if err != nil {
		return nil, errs.Validationf("invalid store id: %v", err)
	}
	if !actor.IsAdmin() && !ownsStore(actor, sid) {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "update another store's stock"}
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, errs.Validationf("invalid product id: %v", err)
	}
	if req.CurrentLevel < 0 {
		return nil, errs.Validationf("current_level must not be negative")
	}
	if req.Threshold <= 0 {
		return nil, errs.Validationf("threshold must be positive")
	}

	if err := s.repo.UpsertStock(ctx, sid, pid, req.CurrentLevel, req.Threshold); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	return s.repo.GetStock(ctx, sid, pid)
}

func (s *service) BulkUpdateStock(ctx context.Context, actor auth.Principal, storeID string, req BulkUpdateStockRequest) ([]*StockRecord, []string, error) {
	if len(req.Updates) == 0 {
		return nil, nil, errs.Validationf("updates must not be empty")
	}
	var updated []*StockRecord
	var failures []string
	for _, u := range req.Updates {
		rec, err := s.UpdateStock(ctx, actor, storeID, u)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", u.ProductID, err))
			continue
		}
		updated = append(updated, rec)
	}
	return updated, failures, nil
}

func (s *service) ListStoreStock(ctx context.Context, storeID string) ([]*StockRecord, error) {
	return s.repo.ListStoreStock(ctx, storeID)
}

func (s *service) ListLowStock(ctx context.Context, storeID string) ([]*StockRecord, error) {
	var scope *uuid.UUID
	if storeID != "" {
		sid, err := uuid.Parse(storeID)
		if err != nil {
			return nil, errs.Validationf("invalid store id: %v", err)
		}
		scope = &sid
	}
	return s.repo.ListBreachedRecords(ctx, scope)
}

func (s *service) CheckAndGenerateDraftOrders(ctx context.Context, storeID string) (*ReplenishmentReport, error) {
	var scope *uuid.UUID
	if storeID != "" {
		sid, err := uuid.Parse(storeID)
		if err != nil {
			return nil, errs.Validationf("invalid store id: %v", err)
		}
		scope = &sid
	}

	breached, err := s.repo.ListBreachedRecords(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock records: %w", err)
	}

	// Group deficits by store, preserving first-seen store order.
	byStore := make(map[uuid.UUID][]DraftLine)
	var storeOrder []uuid.UUID
	for _, rec := range breached {
		qty := rec.Threshold - rec.CurrentLevel
		if qty <= 0 {
			continue
		}
		if _, seen := byStore[rec.StoreID]; !seen {
			storeOrder = append(storeOrder, rec.StoreID)
		}
		byStore[rec.StoreID] = append(byStore[rec.StoreID], DraftLine{ProductID: rec.ProductID, Quantity: qty})
	}

	report := &ReplenishmentReport{StoresChecked: len(storeOrder)}
	for _, sid := range storeOrder {
		open, err := s.repo.HasOpenReplenishmentDraft(ctx, sid)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("store %s: %v", sid, err))
			continue
		}
		if open {
			report.StoresSkipped++
			continue
		}
		orderID, err := s.repo.CreateReplenishmentDraft(ctx, sid, generateOrderNumber(), byStore[sid])
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("store %s: %v", sid, err))
			continue
		}
		report.OrdersCreated++
		report.CreatedOrderID = append(report.CreatedOrderID, orderID.String())
		s.log.WithFields(logrus.Fields{
			"store_id": sid,
			"order_id": orderID,
			"lines":    len(byStore[sid]),
		}).Info("replenishment draft created")
	}
	return report, nil
}

func (s *service) CancelExpiredDraftOrders(ctx context.Context, daysOld int) (int64, error) {
	if daysOld <= 0 {
		return 0, errs.Validationf("days_old must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -daysOld)
	count, err := s.repo.CancelDraftsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel expired drafts: %w", err)
	}
	if count > 0 {
		s.log.WithField("count", count).Info("expired replenishment drafts cancelled")
	}
	return count, nil
}

func ownsStore(actor auth.Principal, storeID uuid.UUID) bool {
	return actor.StoreID != nil && *actor.StoreID == storeID
}

func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
