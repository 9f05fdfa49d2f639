package notification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type fakeRepo struct {
	storeUsers map[uuid.UUID][]uuid.UUID
	saved      []*Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{storeUsers: make(map[uuid.UUID][]uuid.UUID)}
}

func (f *fakeRepo) CreateBatch(ctx context.Context, notifications []*Notification) error {
	f.saved = append(f.saved, notifications...)
	return nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	var out []*Notification
	for _, n := range f.saved {
		if n.UserID.String() != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	for _, n := range f.saved {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return errors.New("no rows")
}

func (f *fakeRepo) ListStoreUserIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	return f.storeUsers[storeID], nil
}

func (f *fakeRepo) Exists(ctx context.Context, notifType string, relatedID uuid.UUID, since time.Time) (bool, error) {
	for _, n := range f.saved {
		if n.Type == notifType && n.RelatedID != nil && *n.RelatedID == relatedID && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakePublisher struct {
	events []Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNotifyStoreFansOutToAllUsers(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, quietLogger())

	storeID := uuid.New()
	repo.storeUsers[storeID] = []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	relatedID := uuid.New()

	err := svc.NotifyStore(context.Background(), storeID, TypePaymentReminder,
		"Payment overdue", "Invoice INV-202608-AAAA is past due.", relatedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 3 {
		t.Errorf("saved %d rows, want one per store user (3)", len(repo.saved))
	}
	if len(pub.events) != 1 {
		t.Errorf("published %d events, want 1", len(pub.events))
	}
	exists, _ := svc.Exists(context.Background(), TypePaymentReminder, relatedID, time.Now().Add(-time.Minute))
	if !exists {
		t.Error("Exists should find the notification just created")
	}
}

func TestNotifyStoreSurvivesBrokerFailure(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(repo, pub, quietLogger())

	storeID := uuid.New()
	repo.storeUsers[storeID] = []uuid.UUID{uuid.New()}

	err := svc.NotifyStore(context.Background(), storeID, TypeTemperatureAlert,
		"Temperature breach", "Fridge at 12.0°C.", uuid.New())
	if err != nil {
		t.Fatalf("broker failure should not fail the notification: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Errorf("notification row should still be persisted")
	}
}

func TestExistsHonorsSinceWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, quietLogger())

	relatedID := uuid.New()
	old := relatedID
	repo.saved = append(repo.saved, &Notification{
		ID: uuid.New(), UserID: uuid.New(), Type: TypeTemperatureAlert,
		RelatedID: &old, CreatedAt: time.Now().Add(-2 * time.Hour),
	})

	exists, err := svc.Exists(context.Background(), TypeTemperatureAlert, relatedID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("notification outside the window should not count")
	}
}
