package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
)

// Service defines delivery lifecycle business logic.
type Service interface {
	GetDelivery(ctx context.Context, id string) (*Delivery, error)
	GetByOrder(ctx context.Context, orderID string) (*Delivery, error)
	ListDriverDeliveries(ctx context.Context, driverID string, activeOnly bool) ([]*Delivery, error)
	ListStoreDeliveries(ctx context.Context, storeID string, status string) ([]*Delivery, error)

	// AssignDriver is admin-only and fails once the delivery is terminal.
	AssignDriver(ctx context.Context, actor auth.Principal, id string, req AssignRequest) (*Delivery, error)

	// Start moves PENDING/ASSIGNED to IN_TRANSIT. Driver-only; an
	// unassigned delivery is claimed by the starting driver.
	Start(ctx context.Context, actor auth.Principal, id string) (*Delivery, error)

	// Complete records proof of delivery, decrements the store's stock,
	// and drives the parent order to DELIVERED. Only the assigned
	// driver may complete.
	Complete(ctx context.Context, actor auth.Principal, id string, req CompleteRequest) (*Delivery, error)

	// Fail marks the delivery FAILED. Admin or the assigned driver.
	Fail(ctx context.Context, actor auth.Principal, id string, req FailRequest) (*Delivery, error)
}

type service struct{ repo Repository }

// NewService creates a new delivery service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) GetDelivery(ctx context.Context, id string) (*Delivery, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "delivery", Ref: id}
	}
	return d, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID string) (*Delivery, error) {
	d, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "delivery", Ref: "order " + orderID}
	}
	return d, nil
}

func (s *service) ListDriverDeliveries(ctx context.Context, driverID string, activeOnly bool) ([]*Delivery, error) {
	var statuses []Status
	if activeOnly {
		statuses = []Status{StatusAssigned, StatusInTransit}
	}
	return s.repo.ListByDriver(ctx, driverID, statuses)
}

func (s *service) ListStoreDeliveries(ctx context.Context, storeID string, status string) ([]*Delivery, error) {
	return s.repo.ListByStore(ctx, storeID, strings.ToUpper(status))
}

func (s *service) AssignDriver(ctx context.Context, actor auth.Principal, id string, req AssignRequest) (*Delivery, error) {
	if !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "assign drivers"}
	}
	if req.DriverID == "" {
		return nil, errs.Validationf("driver_id is required")
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, errs.Validationf("invalid driver_id: %v", err)
	}

	d, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusDelivered || d.Status == StatusFailed {
		return nil, &errs.InvalidTransitionError{Entity: "delivery", Current: string(d.Status), Attempted: "ASSIGN_DRIVER"}
	}

	if err := s.repo.AssignDriver(ctx, d.ID, driverID); err != nil {
		return nil, err
	}
	return s.GetDelivery(ctx, id)
}

func (s *service) Start(ctx context.Context, actor auth.Principal, id string) (*Delivery, error) {
	if actor.Role != auth.RoleDriver {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "start deliveries"}
	}
	d, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.DriverID != nil && *d.DriverID != actor.ID {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "start a delivery assigned to another driver"}
	}
	if d.Status != StatusPending && d.Status != StatusAssigned {
		return nil, &errs.InvalidTransitionError{Entity: "delivery", Current: string(d.Status), Attempted: string(StatusInTransit)}
	}

	if err := s.repo.Start(ctx, d.ID, actor.ID); err != nil {
		return nil, &errs.InvalidTransitionError{Entity: "delivery", Current: string(d.Status), Attempted: string(StatusInTransit)}
	}
	return s.GetDelivery(ctx, id)
}

func (s *service) Complete(ctx context.Context, actor auth.Principal, id string, req CompleteRequest) (*Delivery, error) {
	if actor.Role != auth.RoleDriver {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "complete deliveries"}
	}
	d, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.DriverID == nil || *d.DriverID != actor.ID {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "complete a delivery not assigned to you"}
	}
	if d.Status != StatusAssigned && d.Status != StatusInTransit {
		return nil, &errs.InvalidTransitionError{Entity: "delivery", Current: string(d.Status), Attempted: string(StatusDelivered)}
	}

	if err := s.repo.Complete(ctx, d, req); err != nil {
		return nil, fmt.Errorf("failed to complete delivery: %w", err)
	}
	return s.GetDelivery(ctx, id)
}

func (s *service) Fail(ctx context.Context, actor auth.Principal, id string, req FailRequest) (*Delivery, error) {
	d, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	assigned := d.DriverID != nil && *d.DriverID == actor.ID
	if !actor.IsAdmin() && !assigned {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "fail this delivery"}
	}
	if d.Status == StatusDelivered || d.Status == StatusFailed {
		return nil, &errs.InvalidTransitionError{Entity: "delivery", Current: string(d.Status), Attempted: string(StatusFailed)}
	}
	if err := s.repo.Fail(ctx, d.ID, req.Reason); err != nil {
		return nil, err
	}
	return s.GetDelivery(ctx, id)
}
