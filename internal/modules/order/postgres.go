package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// CreateOrder inserts the order and all its items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, store_id, order_number, order_type, status, total_amount, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.StoreID, o.OrderNumber, o.Type, o.Status, o.TotalAmount, o.Notes, o.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT id,store_id,order_number,order_type,status,total_amount,notes,status_note,created_by,created_at,updated_at
		FROM orders WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrdersByStore(ctx context.Context, storeID string, status string) ([]*Order, error) {
	query := `SELECT id,store_id,order_number,order_type,status,total_amount,notes,status_note,created_by,created_at,updated_at
	          FROM orders WHERE store_id=$1`
	args := []interface{}{storeID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

func (r *postgresRepo) ListOrdersByStatus(ctx context.Context, status Status) ([]*Order, error) {
	return r.queryOrders(ctx, `
		SELECT id,store_id,order_number,order_type,status,total_amount,notes,status_note,created_by,created_at,updated_at
		FROM orders WHERE status=$1 ORDER BY created_at ASC`, status)
}

func (r *postgresRepo) ApplyTransition(ctx context.Context, orderID uuid.UUID, t Transition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status=$1, status_note=COALESCE(NULLIF($2,''), status_note), updated_at=$3
		WHERE id=$4 AND status=$5`,
		t.To, t.Note, time.Now(), orderID, t.From)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return staleTransitionError(ctx, tx, orderID, t)
	}

	if len(t.PricedItems) > 0 {
		for _, item := range t.PricedItems {
			_, err = tx.ExecContext(ctx,
				`UPDATE order_items SET unit_price=$1, line_total=$2 WHERE id=$3 AND order_id=$4`,
				item.UnitPrice, item.LineTotal, item.ID, orderID)
			if err != nil {
				return fmt.Errorf("snapshot item price: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET total_amount=$1 WHERE id=$2`, t.TotalAmount, orderID)
		if err != nil {
			return fmt.Errorf("update order total: %w", err)
		}
	}

	for _, effect := range t.Effects {
		if err := applyEffect(ctx, tx, orderID, effect); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// applyEffect persists one derivative row. Inserts are keyed on the
// order id so a replayed transition converges instead of duplicating.
func applyEffect(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, e Effect) error {
	switch e.Kind {
	case EffectCreateKitchenSheet:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO kitchen_sheets (id, order_id, status)
			VALUES ($1,$2,'PENDING')
			ON CONFLICT (order_id) DO NOTHING`,
			e.Sheet.SheetID, orderID)
		if err != nil {
			return fmt.Errorf("insert kitchen_sheet: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil // sheet already exists, keep it
		}
		for pos, item := range e.Sheet.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO kitchen_sheet_items
				  (id, sheet_id, product_id, quantity, position, is_packed)
				VALUES ($1,$2,$3,$4,$5,false)`,
				item.ID, e.Sheet.SheetID, item.ProductID, item.Quantity, pos)
			if err != nil {
				return fmt.Errorf("insert kitchen_sheet_item: %w", err)
			}
		}
	case EffectCreateDelivery:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO deliveries
			  (id, order_id, store_id, status, scheduled_date, delivery_address, delivery_lat, delivery_lon)
			VALUES ($1,$2,$3,'PENDING',$4,$5,$6,$7)
			ON CONFLICT (order_id) DO NOTHING`,
			e.Delivery.DeliveryID, orderID, e.Delivery.StoreID,
			e.Delivery.ScheduledDate, e.Delivery.Address, e.Delivery.Lat, e.Delivery.Lon)
		if err != nil {
			return fmt.Errorf("insert delivery: %w", err)
		}
	default:
		return fmt.Errorf("unknown transition effect: %s", e.Kind)
	}
	return nil
}

func (r *postgresRepo) GetProductPrice(ctx context.Context, productID uuid.UUID) (float64, bool, error) {
	var price float64
	var active bool
	err := r.db.QueryRowContext(ctx,
		`SELECT price, is_active FROM products WHERE id=$1`, productID).Scan(&price, &active)
	return price, active, err
}

func (r *postgresRepo) HasKitchenSheet(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM kitchen_sheets WHERE order_id=$1 AND status<>'CANCELLED')`,
		orderID).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) FindDeliveryIDByOrder(ctx context.Context, orderID uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM deliveries WHERE order_id=$1`, orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (r *postgresRepo) GetStoreDropoff(ctx context.Context, storeID uuid.UUID) (string, *float64, *float64, error) {
	var address string
	var lat, lon *float64
	err := r.db.QueryRowContext(ctx,
		`SELECT address, latitude, longitude FROM stores WHERE id=$1`, storeID).
		Scan(&address, &lat, &lon)
	return address, lat, lon, err
}

// ── helpers ──────────────────────────────────────────────────────────────────

// staleTransitionError reads back the current status so the caller sees
// what actually blocked the transition.
func staleTransitionError(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, t Transition) error {
	var current Status
	if err := tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id=$1`, orderID).Scan(&current); err != nil {
		current = "UNKNOWN"
	}
	return invalidTransition(current, t.To)
}

func scanOrder(row *sql.Row) (*Order, error) {
	o := &Order{}
	var createdBy sql.NullString
	err := row.Scan(&o.ID, &o.StoreID, &o.OrderNumber, &o.Type, &o.Status,
		&o.TotalAmount, &o.Notes, &o.StatusNote, &createdBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		uid, _ := uuid.Parse(createdBy.String)
		o.CreatedBy = &uid
	}
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*Order
	for rows.Next() {
		o := &Order{}
		var createdBy sql.NullString
		if err := rows.Scan(&o.ID, &o.StoreID, &o.OrderNumber, &o.Type, &o.Status,
			&o.TotalAmount, &o.Notes, &o.StatusNote, &createdBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if createdBy.Valid {
			uid, _ := uuid.Parse(createdBy.String)
			o.CreatedBy = &uid
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, line_total, created_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
