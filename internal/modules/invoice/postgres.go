package invoice

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const invoiceColumns = `i.id, i.invoice_number, i.order_id, i.store_id, i.total_amount,
	i.tax, i.discount, i.return_adjustment,
	COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.invoice_id = i.id), 0),
	i.status, i.due_date, i.created_at, i.updated_at`

func (r *postgresRepo) InvoiceExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE order_id=$1)`, orderID).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) GetOrderBilling(ctx context.Context, orderID uuid.UUID) (*OrderBilling, error) {
	b := &OrderBilling{}
	err := r.db.QueryRowContext(ctx, `
		SELECT o.store_id, o.status,
		       COALESCE(d.status, ''),
		       COALESCE((SELECT SUM(oi.line_total) FROM order_items oi WHERE oi.order_id = o.id), 0),
		       s.payment_terms_days
		FROM orders o
		JOIN stores s ON s.id = o.store_id
		LEFT JOIN deliveries d ON d.order_id = o.id
		WHERE o.id=$1`, orderID).
		Scan(&b.StoreID, &b.OrderStatus, &b.DeliveryStatus, &b.ItemsTotal, &b.PaymentTermsDays)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *postgresRepo) CreateInvoice(ctx context.Context, inv *Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, invoice_number, order_id, store_id, total_amount, tax, discount,
		                      return_adjustment, status, due_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
		inv.ID, inv.InvoiceNumber, inv.OrderID, inv.StoreID, inv.TotalAmount, inv.Tax,
		inv.Discount, inv.ReturnAdjustment, inv.Status, inv.DueDate, inv.CreatedAt)
	return err
}

func (r *postgresRepo) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.id=$1`, id))
}

func (r *postgresRepo) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	return scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.order_id=$1`, orderID))
}

func (r *postgresRepo) ListInvoicesByStore(ctx context.Context, storeID string, status string) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices i WHERE i.store_id=$1`
	args := []interface{}{storeID}
	if status != "" {
		query += ` AND i.status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY i.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []*Invoice
	for rows.Next() {
		inv := &Invoice{}
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.StoreID, &inv.TotalAmount,
			&inv.Tax, &inv.Discount, &inv.ReturnAdjustment, &inv.PaidAmount,
			&inv.Status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *postgresRepo) ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, invoice_id, delivery_id, amount, method, collected_by,
		       COALESCE(transaction_id,''), COALESCE(receipt_url,''), created_at
		FROM payments WHERE invoice_id=$1 ORDER BY created_at ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		var deliveryID sql.NullString
		if err := rows.Scan(&p.ID, &p.InvoiceID, &deliveryID, &p.Amount, &p.Method,
			&p.CollectedBy, &p.TransactionID, &p.ReceiptURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		if deliveryID.Valid {
			uid, _ := uuid.Parse(deliveryID.String)
			p.DeliveryID = &uid
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *postgresRepo) RecordPayment(ctx context.Context, p *Payment) (*Invoice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var total decimal.Decimal
	var dueDate time.Time
	var orderID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT total_amount, due_date, order_id FROM invoices WHERE id=$1 FOR UPDATE`,
		p.InvoiceID).Scan(&total, &dueDate, &orderID)
	if err != nil {
		return nil, err
	}

	var paid decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id=$1`,
		p.InvoiceID).Scan(&paid)
	if err != nil {
		return nil, err
	}

	remaining := total.Sub(paid)
	if p.Amount.GreaterThan(remaining) {
		return nil, &errs.OverPaymentError{
			Attempted: p.Amount.StringFixed(2),
			Remaining: remaining.StringFixed(2),
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, delivery_id, amount, method, collected_by,
		                      transaction_id, receipt_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.InvoiceID, p.DeliveryID, p.Amount, p.Method, p.CollectedBy,
		p.TransactionID, p.ReceiptURL, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	now := time.Now()
	newPaid := paid.Add(p.Amount)
	status := DeriveStatus(total, newPaid, dueDate, now)
	_, err = tx.ExecContext(ctx,
		`UPDATE invoices SET status=$1, updated_at=$2 WHERE id=$3`, status, now, p.InvoiceID)
	if err != nil {
		return nil, err
	}

	// A fully settled invoice closes out its order.
	if status == StatusPaid {
		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET status='COMPLETED', updated_at=$1
			WHERE id=$2 AND status='DELIVERED'`, now, orderID)
		if err != nil {
			return nil, fmt.Errorf("complete order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetInvoice(ctx, p.InvoiceID.String())
}

func (r *postgresRepo) GetDeliveryDriver(ctx context.Context, deliveryID uuid.UUID) (*uuid.UUID, uuid.UUID, error) {
	var driverID sql.NullString
	var storeID uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT driver_id, store_id FROM deliveries WHERE id=$1`, deliveryID).
		Scan(&driverID, &storeID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !driverID.Valid {
		return nil, storeID, nil
	}
	uid, err := uuid.Parse(driverID.String)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &uid, storeID, nil
}

func (r *postgresRepo) CreateReturn(ctx context.Context, ret *Return) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO returns (id, delivery_id, store_id, status, returned_by, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
		ret.ID, ret.DeliveryID, ret.StoreID, ret.Status, ret.ReturnedBy, ret.Notes, ret.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	for _, item := range ret.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO return_items (id, return_id, product_id, quantity, expiry_date, reason)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, ret.ID, item.ProductID, item.Quantity, item.ExpiryDate, item.Reason)
		if err != nil {
			return fmt.Errorf("insert return item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) GetReturn(ctx context.Context, id string) (*Return, error) {
	ret := &Return{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, delivery_id, store_id, status, returned_by, COALESCE(notes,''), created_at, updated_at
		FROM returns WHERE id=$1`, id).
		Scan(&ret.ID, &ret.DeliveryID, &ret.StoreID, &ret.Status, &ret.ReturnedBy,
			&ret.Notes, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, expiry_date, COALESCE(reason,'')
		FROM return_items WHERE return_id=$1`, ret.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item ReturnItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.ExpiryDate, &item.Reason); err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, item)
	}
	return ret, rows.Err()
}

func (r *postgresRepo) ListReturnsByStore(ctx context.Context, storeID string) ([]*Return, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, delivery_id, store_id, status, returned_by, COALESCE(notes,''), created_at, updated_at
		FROM returns WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var returns []*Return
	for rows.Next() {
		ret := &Return{}
		if err := rows.Scan(&ret.ID, &ret.DeliveryID, &ret.StoreID, &ret.Status, &ret.ReturnedBy,
			&ret.Notes, &ret.CreatedAt, &ret.UpdatedAt); err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

func (r *postgresRepo) ProcessReturn(ctx context.Context, returnID uuid.UUID) (*Return, *Invoice, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var deliveryID uuid.UUID
	var status ReturnStatus
	err = tx.QueryRowContext(ctx,
		`SELECT delivery_id, status FROM returns WHERE id=$1 FOR UPDATE`, returnID).
		Scan(&deliveryID, &status)
	if err != nil {
		return nil, nil, err
	}
	if status != ReturnPending {
		return nil, nil, sql.ErrNoRows
	}

	// Value the return at current product prices, not creation-time
	// prices.
	var returnValue decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ri.quantity * p.price), 0)
		FROM return_items ri
		JOIN products p ON p.id = ri.product_id
		WHERE ri.return_id=$1`, returnID).Scan(&returnValue)
	if err != nil {
		return nil, nil, fmt.Errorf("value return: %w", err)
	}

	var invoiceID uuid.UUID
	var total, tax, discount, adjustment decimal.Decimal
	var dueDate time.Time
	var itemsTotal decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT i.id, i.total_amount, i.tax, i.discount, i.return_adjustment, i.due_date,
		       COALESCE((SELECT SUM(oi.line_total) FROM order_items oi WHERE oi.order_id = i.order_id), 0)
		FROM invoices i
		JOIN deliveries d ON d.order_id = i.order_id
		WHERE d.id=$1 FOR UPDATE OF i`, deliveryID).
		Scan(&invoiceID, &total, &tax, &discount, &adjustment, &dueDate, &itemsTotal)
	if err != nil {
		return nil, nil, fmt.Errorf("find invoice for return: %w", err)
	}

	var paid decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id=$1`, invoiceID).Scan(&paid)
	if err != nil {
		return nil, nil, err
	}

	newAdjustment := adjustment.Add(returnValue)
	newTotal := itemsTotal.Add(tax).Sub(discount).Sub(newAdjustment)
	now := time.Now()
	newStatus := DeriveStatus(newTotal, paid, dueDate, now)

	_, err = tx.ExecContext(ctx, `
		UPDATE invoices SET return_adjustment=$1, total_amount=$2, status=$3, updated_at=$4
		WHERE id=$5`, newAdjustment, newTotal, newStatus, now, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE returns SET status='PROCESSED', updated_at=$1 WHERE id=$2`, now, returnID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	ret, err := r.GetReturn(ctx, returnID.String())
	if err != nil {
		return nil, nil, err
	}
	inv, err := r.GetInvoice(ctx, invoiceID.String())
	if err != nil {
		return nil, nil, err
	}
	return ret, inv, nil
}

func (r *postgresRepo) RejectReturn(ctx context.Context, returnID uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE returns SET status='REJECTED', notes=COALESCE(NULLIF($1,''), notes), updated_at=$2
		WHERE id=$3 AND status='PENDING'`, reason, time.Now(), returnID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) ListUninvoicedDeliveredOrders(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id FROM orders o
		WHERE o.status IN ('DELIVERED','COMPLETED')
		  AND NOT EXISTS (SELECT 1 FROM invoices i WHERE i.order_id = o.id)
		ORDER BY o.updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresRepo) MarkOverdue(ctx context.Context, now time.Time) ([]OverdueInvoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE invoices SET status='OVERDUE', updated_at=$1
		WHERE status IN ('PENDING','PARTIAL') AND due_date < $1
		RETURNING id, store_id, invoice_number`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var flipped []OverdueInvoice
	for rows.Next() {
		var o OverdueInvoice
		if err := rows.Scan(&o.ID, &o.StoreID, &o.InvoiceNumber); err != nil {
			return nil, err
		}
		flipped = append(flipped, o)
	}
	return flipped, rows.Err()
}

func scanInvoice(row *sql.Row) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.StoreID, &inv.TotalAmount,
		&inv.Tax, &inv.Discount, &inv.ReturnAdjustment, &inv.PaidAmount,
		&inv.Status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}
