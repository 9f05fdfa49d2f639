package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateBatch(ctx context.Context, notifications []*Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range notifications {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, store_id, type, title, message, related_id, is_read, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,false,$8)`,
			n.ID, n.UserID, n.StoreID, n.Type, n.Title, n.Message, n.RelatedID, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return tx.Commit()
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, user_id, store_id, type, title, message, related_id, is_read, created_at
		FROM notifications WHERE user_id=$1`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT 200`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var storeID, relatedID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &storeID, &n.Type, &n.Title, &n.Message,
			&relatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if storeID.Valid {
			uid, _ := uuid.Parse(storeID.String)
			n.StoreID = &uid
		}
		if relatedID.Valid {
			uid, _ := uuid.Parse(relatedID.String)
			n.RelatedID = &uid
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *postgresRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *postgresRepo) ListStoreUserIDs(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM users WHERE store_id=$1 AND is_active=true`, storeID)
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

func (r *postgresRepo) Exists(ctx context.Context, notifType string, relatedID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE type=$1 AND related_id=$2 AND created_at >= $3
		)`, notifType, relatedID, since).Scan(&exists)
	return exists, err
}
