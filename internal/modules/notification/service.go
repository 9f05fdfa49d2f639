package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventPublisher pushes events to the broker. Satisfied by *Publisher;
// nil-able for deployments without a broker.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Service defines notification business logic.
type Service interface {
	// NotifyStore persists one notification per active user of the
	// store and publishes a single broker event. Broker failures are
	// logged, never surfaced; rows are the source of truth.
	NotifyStore(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error

	// Exists reports whether a notification of this type already
	// references relatedID since the given time.
	Exists(ctx context.Context, notifType string, relatedID uuid.UUID, since time.Time) (bool, error)

	ListUserNotifications(ctx context.Context, actor auth.Principal, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, actor auth.Principal, id string) error
}

type service struct {
	repo      Repository
	publisher EventPublisher
	log       *logrus.Logger
}

// NewService creates a new notification service. publisher may be nil.
func NewService(repo Repository, publisher EventPublisher, log *logrus.Logger) Service {
	return &service{repo: repo, publisher: publisher, log: log}
}

func (s *service) NotifyStore(ctx context.Context, storeID uuid.UUID, notifType, title, message string, relatedID uuid.UUID) error {
	userIDs, err := s.repo.ListStoreUserIDs(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to resolve store users: %w", err)
	}

	now := time.Now()
	notifications := make([]*Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, &Notification{
			ID:        uuid.New(),
			UserID:    userID,
			StoreID:   &storeID,
			Type:      notifType,
			Title:     title,
			Message:   message,
			RelatedID: &relatedID,
			CreatedAt: now,
		})
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to persist notifications: %w", err)
	}

	if s.publisher != nil {
		event := Event{
			Type:      notifType,
			StoreID:   storeID.String(),
			Title:     title,
			Message:   message,
			RelatedID: relatedID.String(),
			EmittedAt: now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.WithError(err).WithField("type", notifType).Warn("broker publish failed")
		}
	}
	return nil
}

func (s *service) Exists(ctx context.Context, notifType string, relatedID uuid.UUID, since time.Time) (bool, error) {
	return s.repo.Exists(ctx, notifType, relatedID, since)
}

func (s *service) ListUserNotifications(ctx context.Context, actor auth.Principal, unreadOnly bool) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, actor.ID.String(), unreadOnly)
}

func (s *service) MarkRead(ctx context.Context, actor auth.Principal, id string) error {
	notifID, err := uuid.Parse(id)
	if err != nil {
		return errs.Validationf("invalid notification id: %v", err)
	}
	if err := s.repo.MarkRead(ctx, notifID, actor.ID); err != nil {
		return &errs.NotFoundError{Entity: "notification", Ref: id}
	}
	return nil
}
