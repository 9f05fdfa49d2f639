package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
)

// Service defines the order pipeline business logic. Every mutating
// operation validates the action against the current state, and any
// derivative row (kitchen sheet, delivery) is committed in the same
// transaction as the status change.
type Service interface {
	// CreateOrder creates a DRAFT order, or a PENDING one when the
	// request asks for immediate submission.
	CreateOrder(ctx context.Context, actor auth.Principal, req CreateOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListStoreOrders(ctx context.Context, storeID string, status string) ([]*Order, error)

	// Submit moves DRAFT→PENDING. Requires at least one line item and a
	// store actor owning the order (or an admin).
	Submit(ctx context.Context, actor auth.Principal, id string) (*Order, error)

	// Approve moves PENDING→APPROVED. Admin only. Snapshots current
	// catalog prices into the line items and creates the kitchen sheet.
	Approve(ctx context.Context, actor auth.Principal, id string) (*Order, error)

	// Reject moves PENDING→REJECTED. Admin only. Terminal.
	Reject(ctx context.Context, actor auth.Principal, id string, reason string) (*Order, error)

	// Cancel moves DRAFT/PENDING/APPROVED→CANCELLED. Owner or admin.
	// Forbidden once physical work has started.
	Cancel(ctx context.Context, actor auth.Principal, id string, reason string) (*Order, error)

	// GenerateDelivery moves READY→IN_DELIVERY and creates the delivery
	// row. Idempotent: a second call returns the order unchanged with
	// the existing delivery left in place.
	GenerateDelivery(ctx context.Context, id string) (*Order, error)

	// Finalize moves DELIVERED→COMPLETED. Admin closes explicitly;
	// full invoice settlement closes automatically elsewhere.
	Finalize(ctx context.Context, actor auth.Principal, id string) (*Order, error)
}

type service struct {
	repo Repository
}

// NewService creates a new order pipeline service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateOrder(ctx context.Context, actor auth.Principal, req CreateOrderRequest) (*Order, error) {
	if req.StoreID == "" {
		return nil, errs.Validationf("store_id is required")
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, errs.Validationf("invalid store_id: %v", err)
	}
	if !actor.IsAdmin() && !ownsStore(actor, storeID) {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "create an order for another store"}
	}

	status := StatusDraft
	if req.Submit {
		if len(req.Items) == 0 {
			return nil, errs.Validationf("order must contain at least one item")
		}
		status = StatusPending
	}

	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:          uuid.New(),
		StoreID:     storeID,
		OrderNumber: generateOrderNumber(),
		Type:        TypeManual,
		Status:      status,
		Notes:       req.Notes,
		CreatedBy:   &actor.ID,
		Items:       items,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "order", Ref: id}
	}
	return o, nil
}

func (s *service) ListStoreOrders(ctx context.Context, storeID string, status string) ([]*Order, error) {
	return s.repo.ListOrdersByStore(ctx, storeID, strings.ToUpper(status))
}

func (s *service) Submit(ctx context.Context, actor auth.Principal, id string) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !ownsStore(actor, o.StoreID) {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "submit this order"}
	}
	if !CanTransition(o.Status, StatusPending) {
		return nil, invalidTransition(o.Status, StatusPending)
	}
	if len(o.Items) == 0 {
		return nil, errs.Validationf("order must contain at least one item before submission")
	}

	t := Transition{From: o.Status, To: StatusPending}
	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) Approve(ctx context.Context, actor auth.Principal, id string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "approve orders"}
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusApproved) {
		return nil, invalidTransition(o.Status, StatusApproved)
	}

	// Snapshot current catalog prices into the line items.
	var total float64
	priced := make([]*OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		price, active, err := s.repo.GetProductPrice(ctx, item.ProductID)
		if err != nil {
			return nil, &errs.NotFoundError{Entity: "product", Ref: item.ProductID.String()}
		}
		if !active {
			return nil, errs.Validationf("product %s is no longer active", item.ProductID)
		}
		item.UnitPrice = price
		item.LineTotal = price * float64(item.Quantity)
		total += item.LineTotal
		priced = append(priced, item)
	}

	t := Transition{
		From:        o.Status,
		To:          StatusApproved,
		PricedItems: priced,
		TotalAmount: round2(total),
	}

	// Sheet creation is idempotent: skip the effect if one exists.
	hasSheet, err := s.repo.HasKitchenSheet(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !hasSheet {
		t.Effects = append(t.Effects, Effect{Kind: EffectCreateKitchenSheet, Sheet: buildSheetSpec(o)})
	}

	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) Reject(ctx context.Context, actor auth.Principal, id string, reason string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "reject orders"}
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusRejected) {
		return nil, invalidTransition(o.Status, StatusRejected)
	}
	t := Transition{From: o.Status, To: StatusRejected, Note: reason}
	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) Cancel(ctx context.Context, actor auth.Principal, id string, reason string) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !ownsStore(actor, o.StoreID) {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "cancel this order"}
	}
	// In-flight physical work cannot be silently cancelled.
	if !CanTransition(o.Status, StatusCancelled) {
		return nil, invalidTransition(o.Status, StatusCancelled)
	}
	t := Transition{From: o.Status, To: StatusCancelled, Note: reason}
	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) GenerateDelivery(ctx context.Context, id string) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	// A second call returns the existing delivery's order untouched.
	if _, exists, err := s.repo.FindDeliveryIDByOrder(ctx, o.ID); err != nil {
		return nil, err
	} else if exists {
		return o, nil
	}

	if !CanTransition(o.Status, StatusInDelivery) {
		return nil, invalidTransition(o.Status, StatusInDelivery)
	}

	address, lat, lon, err := s.repo.GetStoreDropoff(ctx, o.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load store dropoff: %w", err)
	}

	t := Transition{
		From: o.Status,
		To:   StatusInDelivery,
		Effects: []Effect{{
			Kind: EffectCreateDelivery,
			Delivery: &DeliverySpec{
				DeliveryID:    uuid.New(),
				StoreID:       o.StoreID,
				ScheduledDate: time.Now().AddDate(0, 0, 1),
				Address:       address,
				Lat:           lat,
				Lon:           lon,
			},
		}},
	}
	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *service) Finalize(ctx context.Context, actor auth.Principal, id string) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "finalize orders"}
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusCompleted) {
		return nil, invalidTransition(o.Status, StatusCompleted)
	}
	t := Transition{From: o.Status, To: StatusCompleted}
	if err := s.repo.ApplyTransition(ctx, o.ID, t); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func ownsStore(actor auth.Principal, storeID uuid.UUID) bool {
	return actor.StoreID != nil && *actor.StoreID == storeID
}

func invalidTransition(current, attempted Status) error {
	return &errs.InvalidTransitionError{
		Entity:    "order",
		Current:   string(current),
		Attempted: string(attempted),
	}
}

func buildItems(lines []LineRequest) ([]*OrderItem, error) {
	var items []*OrderItem
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errs.Validationf("quantity must be > 0 for product %s", line.ProductID)
		}
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, errs.Validationf("invalid product_id: %v", err)
		}
		items = append(items, &OrderItem{ID: uuid.New(), ProductID: pid, Quantity: line.Quantity})
	}
	return items, nil
}

func buildSheetSpec(o *Order) *SheetSpec {
	spec := &SheetSpec{SheetID: uuid.New()}
	for _, item := range o.Items {
		spec.Items = append(spec.Items, SheetItemSpec{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return spec
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
