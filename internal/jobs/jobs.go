package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/invoice"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/kitchen"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/stock"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/temperature"
)

// Intervals for the standing jobs.
const (
	ReplenishmentInterval = 30 * time.Minute
	KitchenSheetInterval  = 10 * time.Minute
	InvoiceInterval       = 15 * time.Minute
	ReminderInterval      = 6 * time.Hour
	DraftExpiryInterval   = 24 * time.Hour
	TemperatureInterval   = time.Hour
)

// DraftExpiryDays is how long an untouched replenishment draft lives.
const DraftExpiryDays = 7

// RegisterAll wires the standing batch jobs into the scheduler.
func RegisterAll(s *Scheduler, stockSvc stock.Service, kitchenSvc kitchen.Service,
	invoiceSvc invoice.Service, tempSvc temperature.Service) {

	s.Register(Job{
		Name:     "replenishment_check",
		Interval: ReplenishmentInterval,
		Run: func(ctx context.Context) (string, error) {
			report, err := stockSvc.CheckAndGenerateDraftOrders(ctx, "")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d drafts created, %d stores skipped", report.OrdersCreated, report.StoresSkipped), nil
		},
	})

	s.Register(Job{
		Name:     "kitchen_sheet_autogen",
		Interval: KitchenSheetInterval,
		Run: func(ctx context.Context) (string, error) {
			report, err := kitchenSvc.AutoGenerateForApprovedOrders(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d/%d sheets generated", report.Succeeded, report.Attempted), nil
		},
	})

	s.Register(Job{
		Name:     "invoice_autogen",
		Interval: InvoiceInterval,
		Run: func(ctx context.Context) (string, error) {
			report, err := invoiceSvc.AutoGenerateInvoices(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d/%d invoices generated", report.InvoicesGenerated, report.OrdersProcessed), nil
		},
	})

	s.Register(Job{
		Name:     "payment_reminders",
		Interval: ReminderInterval,
		Run: func(ctx context.Context) (string, error) {
			notified, err := invoiceSvc.SendPaymentReminders(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d stores reminded", notified), nil
		},
	})

	s.Register(Job{
		Name:     "draft_order_expiry",
		Interval: DraftExpiryInterval,
		Run: func(ctx context.Context) (string, error) {
			cancelled, err := stockSvc.CancelExpiredDraftOrders(ctx, DraftExpiryDays)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d drafts cancelled", cancelled), nil
		},
	})

	s.Register(Job{
		Name:     "temperature_alerts",
		Interval: TemperatureInterval,
		Run: func(ctx context.Context) (string, error) {
			raised, err := tempSvc.CheckTemperatureAlerts(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d alerts raised", raised), nil
		},
	})
}
