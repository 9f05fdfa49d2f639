package temperature

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func TestIsCompliantBands(t *testing.T) {
	cases := []struct {
		name     string
		temp     float64
		location string
		want     bool
	}{
		{"fridge in range", 5.0, "fridge", true},
		{"fridge lower edge", 2.0, "fridge", true},
		{"fridge upper edge", 8.0, "fridge", true},
		{"fridge too warm", 8.1, "fridge", false},
		{"fridge too cold", 1.9, "fridge", false},
		{"freezer in range", -15.0, "freezer", true},
		{"freezer edges", -18.0, "freezer", true},
		{"freezer too warm", -11.9, "freezer", false},
		{"ambient in range", 20.0, "ambient", true},
		{"ambient too hot", 25.1, "ambient", false},
		{"vehicle always compliant", 40.0, "vehicle", true},
		{"free text always compliant", -50.0, "loading dock", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCompliant(tc.temp, tc.location, nil, nil); got != tc.want {
				t.Errorf("IsCompliant(%v, %q) = %v, want %v", tc.temp, tc.location, got, tc.want)
			}
		})
	}
}

func TestProductRangeOverridesLocationDefault(t *testing.T) {
	min, max := 0.0, 4.0
	// 6°C is fine for a fridge but outside the product's own range.
	if IsCompliant(6.0, "fridge", &min, &max) {
		t.Error("product range should govern over the fridge band")
	}
	// 30°C in a vehicle would default to compliant; the product range
	// says otherwise.
	if IsCompliant(30.0, "vehicle", &min, &max) {
		t.Error("product range should govern over the vehicle default")
	}
	if !IsCompliant(2.0, "vehicle", &min, &max) {
		t.Error("reading inside the product range should be compliant")
	}
}

type fakeRepo struct{ logs []*Log }

func (f *fakeRepo) CreateLog(ctx context.Context, log *Log) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeRepo) ListLogsByStore(ctx context.Context, storeID string, limit int) ([]*Log, error) {
	var out []*Log
	for _, l := range f.logs {
		if l.StoreID.String() == storeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLogsByDelivery(ctx context.Context, deliveryID string) ([]*Log, error) {
	var out []*Log
	for _, l := range f.logs {
		if l.DeliveryID != nil && l.DeliveryID.String() == deliveryID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListNonCompliantSince(ctx context.Context, since time.Time) ([]*Log, error) {
	var out []*Log
	for _, l := range f.logs {
		if !l.IsCompliant && !l.RecordedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAlerter struct{ alerted map[uuid.UUID]bool }

func newFakeAlerter() *fakeAlerter { return &fakeAlerter{alerted: make(map[uuid.UUID]bool)} }

func (a *fakeAlerter) HasAlert(ctx context.Context, logID uuid.UUID, since time.Time) (bool, error) {
	return a.alerted[logID], nil
}

func (a *fakeAlerter) RaiseAlert(ctx context.Context, storeID, logID uuid.UUID, message string) error {
	a.alerted[logID] = true
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func storeActor() auth.Principal {
	storeID := uuid.New()
	return auth.Principal{ID: uuid.New(), Role: auth.RoleStore, StoreID: &storeID}
}

func TestLogTemperatureDerivesCompliance(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, quietLogger())

	entry, err := svc.LogTemperature(context.Background(), storeActor(), LogRequest{
		StoreID: uuid.NewString(), Temperature: 12.0, Location: "Fridge",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.IsCompliant {
		t.Error("12°C in a fridge should not be compliant")
	}
	if entry.Location != "fridge" {
		t.Errorf("location should be normalized, got %q", entry.Location)
	}
	if len(repo.logs) != 1 {
		t.Fatalf("log not persisted")
	}
}

func TestCheckTemperatureAlertsDeduplicates(t *testing.T) {
	repo := &fakeRepo{}
	alerter := newFakeAlerter()
	svc := NewService(repo, alerter, quietLogger())

	repo.logs = []*Log{
		{ID: uuid.New(), StoreID: uuid.New(), Temperature: 12, Location: "fridge", IsCompliant: false, RecordedAt: time.Now().Add(-10 * time.Minute)},
		{ID: uuid.New(), StoreID: uuid.New(), Temperature: 5, Location: "fridge", IsCompliant: true, RecordedAt: time.Now().Add(-10 * time.Minute)},
		{ID: uuid.New(), StoreID: uuid.New(), Temperature: 14, Location: "fridge", IsCompliant: false, RecordedAt: time.Now().Add(-2 * time.Hour)},
	}

	raised, err := svc.CheckTemperatureAlerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raised != 1 {
		t.Fatalf("raised = %d, want 1 (recent breach only)", raised)
	}

	// The second sweep must not alert the same log again.
	raised, err = svc.CheckTemperatureAlerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raised != 0 {
		t.Errorf("second sweep raised %d alerts, want 0", raised)
	}
}
