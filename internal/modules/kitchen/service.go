package kitchen

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DeliveryGenerator triggers delivery creation once packing completes.
// The order pipeline implements this; generation is idempotent there.
type DeliveryGenerator interface {
	GenerateForOrder(ctx context.Context, orderID string) error
}

// DeliveryGeneratorFunc adapts a function to the DeliveryGenerator interface.
type DeliveryGeneratorFunc func(ctx context.Context, orderID string) error

func (f DeliveryGeneratorFunc) GenerateForOrder(ctx context.Context, orderID string) error {
	return f(ctx, orderID)
}

// Service defines kitchen prep business logic.
type Service interface {
	// GenerateSheet creates the packing checklist for an approved order.
	GenerateSheet(ctx context.Context, orderID string) (*KitchenSheet, error)

	GetSheet(ctx context.Context, id string) (*KitchenSheet, error)
	GetSheetByOrder(ctx context.Context, orderID string) (*KitchenSheet, error)
	ListSheets(ctx context.Context, status string) ([]*KitchenSheet, error)

	// PackItem records batch/expiry for an item, marks it packed, and
	// issues its barcode and QR tokens.
	PackItem(ctx context.Context, actor auth.Principal, sheetID, itemID string, req PackItemRequest) (*KitchenSheet, error)

	// CompleteSheet closes a fully packed sheet, drives the order to
	// READY, and triggers delivery generation.
	CompleteSheet(ctx context.Context, actor auth.Principal, sheetID string) (*KitchenSheet, error)

	// AutoGenerateForApprovedOrders is the batch repair job: every
	// APPROVED order lacking a sheet gets one.
	AutoGenerateForApprovedOrders(ctx context.Context) (*BatchReport, error)
}

type service struct {
	repo        Repository
	deliveryGen DeliveryGenerator
	log         *logrus.Logger
}

// NewService creates a new kitchen prep service.
func NewService(repo Repository, deliveryGen DeliveryGenerator, log *logrus.Logger) Service {
	return &service{repo: repo, deliveryGen: deliveryGen, log: log}
}

func (s *service) GenerateSheet(ctx context.Context, orderID string) (*KitchenSheet, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, errs.Validationf("invalid order_id: %v", err)
	}

	// Checked explicitly so callers get a clean domain error instead of
	// a constraint violation.
	exists, err := s.repo.SheetExistsForOrder(ctx, oid)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &errs.AlreadyExistsError{Entity: "kitchen sheet", Ref: "order " + orderID}
	}

	status, lines, err := s.repo.GetOrderForSheet(ctx, oid)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "order", Ref: orderID}
	}
	if status != "APPROVED" && status != "KITCHEN_PREP" {
		return nil, &errs.InvalidTransitionError{Entity: "order", Current: status, Attempted: "GENERATE_SHEET"}
	}
	if len(lines) == 0 {
		return nil, errs.Validationf("order %s has no line items", orderID)
	}

	sheet := &KitchenSheet{ID: uuid.New(), OrderID: oid, Status: SheetPending}
	for pos, line := range lines {
		sheet.Items = append(sheet.Items, &SheetItem{
			ID:        uuid.New(),
			SheetID:   sheet.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Position:  pos,
		})
	}
	if err := s.repo.CreateSheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to persist kitchen sheet: %w", err)
	}
	return sheet, nil
}

func (s *service) GetSheet(ctx context.Context, id string) (*KitchenSheet, error) {
	sheet, err := s.repo.GetSheetByID(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "kitchen sheet", Ref: id}
	}
	return sheet, nil
}

func (s *service) GetSheetByOrder(ctx context.Context, orderID string) (*KitchenSheet, error) {
	sheet, err := s.repo.GetSheetByOrder(ctx, orderID)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "kitchen sheet", Ref: "order " + orderID}
	}
	return sheet, nil
}

func (s *service) ListSheets(ctx context.Context, status string) ([]*KitchenSheet, error) {
	if status == "" {
		status = string(SheetPending)
	}
	return s.repo.ListSheetsByStatus(ctx, SheetStatus(status))
}

func (s *service) PackItem(ctx context.Context, actor auth.Principal, sheetID, itemID string, req PackItemRequest) (*KitchenSheet, error) {
	if actor.Role != auth.RoleKitchen && !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "pack kitchen items"}
	}
	if req.BatchNumber == "" {
		return nil, errs.Validationf("batch_number is required")
	}
	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		return nil, err
	}

	sheet, err := s.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status == SheetCompleted || sheet.Status == SheetCancelled {
		return nil, &errs.InvalidTransitionError{Entity: "kitchen sheet", Current: string(sheet.Status), Attempted: "PACK_ITEM"}
	}

	iid, err := uuid.Parse(itemID)
	if err != nil {
		return nil, errs.Validationf("invalid item_id: %v", err)
	}

	barcode := generateBarcode()
	qrCode := "QR-" + uuid.New().String()
	if err := s.repo.PackItem(ctx, sheet.ID, iid, req.BatchNumber, expiry, barcode, qrCode); err != nil {
		return nil, &errs.NotFoundError{Entity: "sheet item", Ref: itemID}
	}
	return s.GetSheet(ctx, sheetID)
}

func (s *service) CompleteSheet(ctx context.Context, actor auth.Principal, sheetID string) (*KitchenSheet, error) {
	if actor.Role != auth.RoleKitchen && !actor.IsAdmin() {
		return nil, &errs.ForbiddenError{Role: actor.Role, Action: "complete kitchen sheets"}
	}
	sheet, err := s.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status == SheetCompleted {
		return sheet, nil
	}
	if sheet.Status == SheetCancelled {
		return nil, &errs.InvalidTransitionError{Entity: "kitchen sheet", Current: string(sheet.Status), Attempted: "COMPLETE"}
	}

	unpacked := 0
	for _, item := range sheet.Items {
		if !item.IsPacked {
			unpacked++
		}
	}
	if unpacked > 0 {
		return nil, &errs.IncompletePackingError{Unpacked: unpacked}
	}

	if err := s.repo.CompleteSheet(ctx, sheet.ID, sheet.OrderID); err != nil {
		return nil, fmt.Errorf("failed to complete sheet: %w", err)
	}

	// Delivery generation is idempotent on the order, so a failed
	// trigger here is retried by the admin path or the next completion
	// replay rather than rolling back the finished packing work.
	if err := s.deliveryGen.GenerateForOrder(ctx, sheet.OrderID.String()); err != nil {
		s.log.WithError(err).WithField("order_id", sheet.OrderID).
			Warn("delivery generation after sheet completion failed")
	}

	return s.GetSheet(ctx, sheetID)
}

func (s *service) AutoGenerateForApprovedOrders(ctx context.Context) (*BatchReport, error) {
	orderIDs, err := s.repo.ListApprovedOrdersWithoutSheets(ctx)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Attempted: len(orderIDs)}
	for _, oid := range orderIDs {
		if _, err := s.GenerateSheet(ctx, oid.String()); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("order %s: %v", oid, err))
			s.log.WithError(err).WithField("order_id", oid).Warn("sheet auto-generation failed")
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// parseExpiry accepts a date or RFC3339 timestamp and rejects dates in
// the past (today is allowed).
func parseExpiry(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errs.Validationf("expiry_date is required")
	}
	expiry, err := time.Parse("2006-01-02", raw)
	if err != nil {
		expiry, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, errs.Validationf("invalid expiry_date, use YYYY-MM-DD or RFC3339")
		}
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if expiry.Before(today) {
		return time.Time{}, errs.Validationf("expiry_date must not be in the past")
	}
	return expiry, nil
}

// generateBarcode issues a globally unique token: PF- plus 12 hex chars.
func generateBarcode() string {
	id := uuid.New()
	return "PF-" + hex.EncodeToString(id[:6])
}
