package kitchen

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateSheet(ctx context.Context, sheet *KitchenSheet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kitchen_sheets (id, order_id, status) VALUES ($1,$2,$3)`,
		sheet.ID, sheet.OrderID, sheet.Status)
	if err != nil {
		return fmt.Errorf("insert kitchen_sheet: %w", err)
	}
	for _, item := range sheet.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kitchen_sheet_items (id, sheet_id, product_id, quantity, position, is_packed)
			VALUES ($1,$2,$3,$4,$5,false)`,
			item.ID, sheet.ID, item.ProductID, item.Quantity, item.Position)
		if err != nil {
			return fmt.Errorf("insert kitchen_sheet_item: %w", err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) SheetExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM kitchen_sheets WHERE order_id=$1 AND status<>'CANCELLED')`,
		orderID).Scan(&exists)
	return exists, err
}

func (r *postgresRepo) GetSheetByID(ctx context.Context, id string) (*KitchenSheet, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	sheet, err := scanSheet(r.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, completed_at, created_at, updated_at
		FROM kitchen_sheets WHERE id=$1`, uid))
	if err != nil {
		return nil, err
	}
	sheet.Items, err = r.listItems(ctx, sheet.ID)
	return sheet, err
}

func (r *postgresRepo) GetSheetByOrder(ctx context.Context, orderID string) (*KitchenSheet, error) {
	sheet, err := scanSheet(r.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, completed_at, created_at, updated_at
		FROM kitchen_sheets WHERE order_id=$1 AND status<>'CANCELLED'`, orderID))
	if err != nil {
		return nil, err
	}
	sheet.Items, err = r.listItems(ctx, sheet.ID)
	return sheet, err
}

func (r *postgresRepo) ListSheetsByStatus(ctx context.Context, status SheetStatus) ([]*KitchenSheet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, completed_at, created_at, updated_at
		FROM kitchen_sheets WHERE status=$1 ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sheets []*KitchenSheet
	for rows.Next() {
		sheet := &KitchenSheet{}
		if err := rows.Scan(&sheet.ID, &sheet.OrderID, &sheet.Status,
			&sheet.CompletedAt, &sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}

func (r *postgresRepo) GetOrderForSheet(ctx context.Context, orderID uuid.UUID) (string, []OrderLine, error) {
	var status string
	if err := r.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id=$1`, orderID).Scan(&status); err != nil {
		return "", nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity FROM order_items
		WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return "", nil, err
		}
		lines = append(lines, line)
	}
	return status, lines, rows.Err()
}

func (r *postgresRepo) ListApprovedOrdersWithoutSheets(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id FROM orders o
		LEFT JOIN kitchen_sheets ks ON ks.order_id = o.id AND ks.status<>'CANCELLED'
		WHERE o.status='APPROVED' AND ks.id IS NULL
		ORDER BY o.created_at ASC`)
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

func (r *postgresRepo) PackItem(ctx context.Context, sheetID, itemID uuid.UUID, batchNumber string, expiry time.Time, barcode, qrCode string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE kitchen_sheet_items
		SET batch_number=$1, expiry_date=$2, barcode=$3, qr_code=$4, is_packed=true, packed_at=$5
		WHERE id=$6 AND sheet_id=$7`,
		batchNumber, expiry, barcode, qrCode, now, itemID, sheetID)
	if err != nil {
		return fmt.Errorf("pack item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	// First pack starts the sheet and moves the order into prep. Both
	// updates are conditional, so replays change nothing.
	_, err = tx.ExecContext(ctx, `
		UPDATE kitchen_sheets SET status='IN_PROGRESS', updated_at=$1
		WHERE id=$2 AND status='PENDING'`, now, sheetID)
	if err != nil {
		return fmt.Errorf("start sheet: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status='KITCHEN_PREP', updated_at=$1
		WHERE id=(SELECT order_id FROM kitchen_sheets WHERE id=$2) AND status='APPROVED'`,
		now, sheetID)
	if err != nil {
		return fmt.Errorf("advance order to kitchen prep: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepo) CompleteSheet(ctx context.Context, sheetID, orderID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE kitchen_sheets SET status='COMPLETED', completed_at=$1, updated_at=$1
		WHERE id=$2 AND status IN ('PENDING','IN_PROGRESS')`, now, sheetID)
	if err != nil {
		return fmt.Errorf("complete sheet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status='READY', updated_at=$1
		WHERE id=$2 AND status='KITCHEN_PREP'`, now, orderID)
	if err != nil {
		return fmt.Errorf("advance order to ready: %w", err)
	}

	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanSheet(row *sql.Row) (*KitchenSheet, error) {
	sheet := &KitchenSheet{}
	err := row.Scan(&sheet.ID, &sheet.OrderID, &sheet.Status,
		&sheet.CompletedAt, &sheet.CreatedAt, &sheet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (r *postgresRepo) listItems(ctx context.Context, sheetID uuid.UUID) ([]*SheetItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sheet_id, product_id, quantity, position,
		       COALESCE(batch_number,''), expiry_date, COALESCE(barcode,''), COALESCE(qr_code,''),
		       is_packed, packed_at
		FROM kitchen_sheet_items WHERE sheet_id=$1 ORDER BY position ASC`, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SheetItem
	for rows.Next() {
		item := &SheetItem{}
		if err := rows.Scan(&item.ID, &item.SheetID, &item.ProductID, &item.Quantity,
			&item.Position, &item.BatchNumber, &item.ExpiryDate, &item.Barcode,
			&item.QRCode, &item.IsPacked, &item.PackedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
