package temperature

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

// Alerter raises and deduplicates temperature alerts. Implemented by
// the notification module and wired in at startup.
type Alerter interface {
	// HasAlert reports whether an alert already references this log.
	HasAlert(ctx context.Context, logID uuid.UUID, since time.Time) (bool, error)

	// RaiseAlert notifies the store's users about a breaching reading.
	RaiseAlert(ctx context.Context, storeID, logID uuid.UUID, message string) error
}

// Service defines temperature monitoring business logic.
type Service interface {
	// LogTemperature appends a reading; compliance is derived here and
	// frozen into the row.
	LogTemperature(ctx context.Context, actor auth.Principal, req LogRequest) (*Log, error)

	ListStoreLogs(ctx context.Context, storeID string, limit int) ([]*Log, error)
	ListDeliveryLogs(ctx context.Context, deliveryID string) ([]*Log, error)

	// CheckTemperatureAlerts scans the last hour of readings and
	// raises one alert per breaching log. Safe to re-run; logs already
	// alerted are skipped.
	CheckTemperatureAlerts(ctx context.Context) (int, error)
}

type service struct {
	repo    Repository
	alerter Alerter
	log     *logrus.Logger
}

// NewService creates a new temperature service. alerter may be nil, in
// which case the alert sweep only counts breaches.
func NewService(repo Repository, alerter Alerter, log *logrus.Logger) Service {
	return &service{repo: repo, alerter: alerter, log: log}
}

func (s *service) LogTemperature(ctx context.Context, actor auth.Principal, req LogRequest) (*Log, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, errs.Validationf("invalid store id: %v", err)
	}
	location := strings.ToLower(strings.TrimSpace(req.Location))
	if location == "" {
		return nil, errs.Validationf("location is required")
	}
	if req.ProductMin != nil && req.ProductMax != nil && *req.ProductMin > *req.ProductMax {
		return nil, errs.Validationf("product_min must not exceed product_max")
	}

	entry := &Log{
		ID:          uuid.New(),
		StoreID:     storeID,
		Temperature: req.Temperature,
		Location:    location,
		RecordedBy:  actor.ID,
		IsManual:    req.IsManual,
		SensorID:    req.SensorID,
		IsCompliant: IsCompliant(req.Temperature, location, req.ProductMin, req.ProductMax),
		RecordedAt:  time.Now(),
	}
	if req.DeliveryID != "" {
		did, err := uuid.Parse(req.DeliveryID)
		if err != nil {
			return nil, errs.Validationf("invalid delivery id: %v", err)
		}
		entry.DeliveryID = &did
	}

	if err := s.repo.CreateLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record temperature: %w", err)
	}
	if !entry.IsCompliant {
		s.log.WithFields(logrus.Fields{
			"store_id":    storeID,
			"location":    location,
			"temperature": req.Temperature,
		}).Warn("non-compliant temperature reading")
	}
	return entry, nil
}

func (s *service) ListStoreLogs(ctx context.Context, storeID string, limit int) ([]*Log, error) {
	return s.repo.ListLogsByStore(ctx, storeID, limit)
}

func (s *service) ListDeliveryLogs(ctx context.Context, deliveryID string) ([]*Log, error) {
	return s.repo.ListLogsByDelivery(ctx, deliveryID)
}

func (s *service) CheckTemperatureAlerts(ctx context.Context) (int, error) {
	since := time.Now().Add(-time.Hour)
	breaches, err := s.repo.ListNonCompliantSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to scan temperature logs: %w", err)
	}

	raised := 0
	for _, b := range breaches {
		if s.alerter == nil {
			continue
		}
		exists, err := s.alerter.HasAlert(ctx, b.ID, since)
		if err != nil {
			s.log.WithError(err).WithField("log_id", b.ID).Warn("alert lookup failed")
			continue
		}
		if exists {
			continue
		}
		msg := fmt.Sprintf("Temperature %.1f°C recorded at %s is out of range.", b.Temperature, b.Location)
		if err := s.alerter.RaiseAlert(ctx, b.StoreID, b.ID, msg); err != nil {
			s.log.WithError(err).WithField("log_id", b.ID).Warn("temperature alert failed")
			continue
		}
		raised++
	}
	if raised > 0 {
		s.log.WithFields(logrus.Fields{"breaches": len(breaches), "alerts": raised}).Info("temperature alert sweep complete")
	}
	return raised, nil
}
