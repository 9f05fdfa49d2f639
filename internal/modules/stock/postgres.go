package stock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateStore(ctx context.Context, s *Store) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (id, name, address, latitude, longitude, payment_terms_days, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		s.ID, s.Name, s.Address, s.Lat, s.Lon, s.PaymentTermsDays, s.IsActive, s.CreatedAt)
	return err
}

func (r *postgresRepo) GetStore(ctx context.Context, id string) (*Store, error) {
	s := &Store{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(address,''), latitude, longitude, payment_terms_days, is_active, created_at, updated_at
		FROM stores WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Address, &s.Lat, &s.Lon, &s.PaymentTermsDays, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) ListStores(ctx context.Context) ([]*Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(address,''), latitude, longitude, payment_terms_days, is_active, created_at, updated_at
		FROM stores ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []*Store
	for rows.Next() {
		s := &Store{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Lat, &s.Lon, &s.PaymentTermsDays, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *postgresRepo) UpdateStore(ctx context.Context, s *Store) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE stores SET name=$1, address=$2, latitude=$3, longitude=$4,
		       payment_terms_days=$5, is_active=$6, updated_at=$7
		WHERE id=$8`,
		s.Name, s.Address, s.Lat, s.Lon, s.PaymentTermsDays, s.IsActive, time.Now(), s.ID)
	return err
}

func (r *postgresRepo) GetStock(ctx context.Context, storeID, productID uuid.UUID) (*StockRecord, error) {
	rec := &StockRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT sr.id, sr.store_id, sr.product_id, COALESCE(p.name,''), sr.current_level, sr.threshold, sr.last_updated
		FROM stock_records sr
		LEFT JOIN products p ON p.id = sr.product_id
		WHERE sr.store_id=$1 AND sr.product_id=$2`, storeID, productID).
		Scan(&rec.ID, &rec.StoreID, &rec.ProductID, &rec.ProductName, &rec.CurrentLevel, &rec.Threshold, &rec.LastUpdated)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresRepo) ListStoreStock(ctx context.Context, storeID string) ([]*StockRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sr.id, sr.store_id, sr.product_id, COALESCE(p.name,''), sr.current_level, sr.threshold, sr.last_updated
		FROM stock_records sr
		LEFT JOIN products p ON p.id = sr.product_id
		WHERE sr.store_id=$1
		ORDER BY p.name ASC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *postgresRepo) UpsertStock(ctx context.Context, storeID, productID uuid.UUID, level, threshold int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_records (id, store_id, product_id, current_level, threshold, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (store_id, product_id)
		DO UPDATE SET current_level=$4, threshold=$5, last_updated=$6`,
		uuid.New(), storeID, productID, level, threshold, time.Now())
	return err
}

func (r *postgresRepo) ListBreachedRecords(ctx context.Context, storeID *uuid.UUID) ([]*StockRecord, error) {
	query := `
		SELECT sr.id, sr.store_id, sr.product_id, COALESCE(p.name,''), sr.current_level, sr.threshold, sr.last_updated
		FROM stock_records sr
		LEFT JOIN products p ON p.id = sr.product_id
		WHERE sr.current_level < sr.threshold`
	args := []interface{}{}
	if storeID != nil {
		query += ` AND sr.store_id=$1`
		args = append(args, *storeID)
	}
	query += ` ORDER BY sr.store_id, p.name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *postgresRepo) HasOpenReplenishmentDraft(ctx context.Context, storeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE store_id=$1 AND order_type='AUTO_REPLENISH' AND status='DRAFT'
		)`, storeID).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) CreateReplenishmentDraft(ctx context.Context, storeID uuid.UUID, orderNumber string, lines []DraftLine) (uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	orderID := uuid.New()
	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, store_id, order_number, order_type, status, total_amount, notes, created_at, updated_at)
		VALUES ($1,$2,$3,'AUTO_REPLENISH','DRAFT',0,'Generated by replenishment check',$4,$4)`,
		orderID, storeID, orderNumber, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert replenishment draft: %w", err)
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, line_total, created_at)
			VALUES ($1,$2,$3,$4,0,0,$5)`,
			uuid.New(), orderID, line.ProductID, line.Quantity, now)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert draft line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return orderID, nil
}

func (r *postgresRepo) CancelDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status='CANCELLED', status_note='Expired replenishment draft', updated_at=$1
		WHERE order_type='AUTO_REPLENISH' AND status='DRAFT' AND created_at < $2`,
		time.Now(), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRecords(rows *sql.Rows) ([]*StockRecord, error) {
	var records []*StockRecord
	for rows.Next() {
		rec := &StockRecord{}
		if err := rows.Scan(&rec.ID, &rec.StoreID, &rec.ProductID, &rec.ProductName,
			&rec.CurrentLevel, &rec.Threshold, &rec.LastUpdated); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
