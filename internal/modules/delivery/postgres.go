package delivery

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const deliveryColumns = `id, order_id, store_id, driver_id, status, scheduled_date,
	COALESCE(delivery_address,''), delivery_lat, delivery_lon,
	COALESCE(signature,''), COALESCE(delivery_photo,''), COALESCE(notes,''),
	delivered_at, created_at, updated_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Delivery, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return scanDelivery(r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id=$1`, uid))
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID string) (*Delivery, error) {
	return scanDelivery(r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE order_id=$1`, orderID))
}

func (r *postgresRepo) ListByDriver(ctx context.Context, driverID string, statuses []Status) ([]*Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE driver_id=$1`
	args := []interface{}{driverID}
	if len(statuses) > 0 {
		strs := make([]string, len(statuses))
		for i, s := range statuses {
			strs[i] = string(s)
		}
		args = append(args, pq.Array(strs))
		query += ` AND status = ANY($2)`
	}
	query += ` ORDER BY scheduled_date ASC`
	return r.queryDeliveries(ctx, query, args...)
}

func (r *postgresRepo) ListByStore(ctx context.Context, storeID string, status string) ([]*Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE store_id=$1`
	args := []interface{}{storeID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_date DESC`
	return r.queryDeliveries(ctx, query, args...)
}

func (r *postgresRepo) AssignDriver(ctx context.Context, id, driverID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET driver_id=$1, status='ASSIGNED', updated_at=$2
		WHERE id=$3`, driverID, time.Now(), id)
	return err
}

func (r *postgresRepo) Start(ctx context.Context, id, driverID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET driver_id=$1, status='IN_TRANSIT', updated_at=$2
		WHERE id=$3 AND status IN ('PENDING','ASSIGNED')`, driverID, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) Complete(ctx context.Context, d *Delivery, req CompleteRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE deliveries
		SET status='DELIVERED', signature=$1, delivery_photo=$2,
		    notes=COALESCE(NULLIF($3,''), notes), delivered_at=$4, updated_at=$4
		WHERE id=$5 AND status IN ('ASSIGNED','IN_TRANSIT')`,
		req.Signature, req.Photo, req.Notes, now, d.ID)
	if err != nil {
		return fmt.Errorf("complete delivery: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status='DELIVERED', updated_at=$1
		WHERE id=$2 AND status='IN_DELIVERY'`, now, d.OrderID)
	if err != nil {
		return fmt.Errorf("advance order to delivered: %w", err)
	}

	// Delivered quantities reduce the store's stock, never below zero.
	_, err = tx.ExecContext(ctx, `
		UPDATE stock_records sr
		SET current_level = GREATEST(sr.current_level - oi.quantity, 0), last_updated=$1
		FROM order_items oi
		WHERE oi.order_id=$2 AND sr.store_id=$3 AND sr.product_id=oi.product_id`,
		now, d.OrderID, d.StoreID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET status='FAILED', notes=COALESCE(NULLIF($1,''), notes), updated_at=$2
		WHERE id=$3`, reason, time.Now(), id)
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanDelivery(row *sql.Row) (*Delivery, error) {
	d := &Delivery{}
	var driverID sql.NullString
	err := row.Scan(&d.ID, &d.OrderID, &d.StoreID, &driverID, &d.Status, &d.ScheduledDate,
		&d.Address, &d.Lat, &d.Lon, &d.Signature, &d.Photo, &d.Notes,
		&d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		uid, _ := uuid.Parse(driverID.String)
		d.DriverID = &uid
	}
	return d, nil
}

func (r *postgresRepo) queryDeliveries(ctx context.Context, query string, args ...interface{}) ([]*Delivery, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var deliveries []*Delivery
	for rows.Next() {
		d := &Delivery{}
		var driverID sql.NullString
		if err := rows.Scan(&d.ID, &d.OrderID, &d.StoreID, &driverID, &d.Status, &d.ScheduledDate,
			&d.Address, &d.Lat, &d.Lon, &d.Signature, &d.Photo, &d.Notes,
			&d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if driverID.Valid {
			uid, _ := uuid.Parse(driverID.String)
			d.DriverID = &uid
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
