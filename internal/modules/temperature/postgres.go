package temperature

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const logColumns = `id, delivery_id, store_id, temperature, location, recorded_by,
	is_manual, COALESCE(sensor_id,''), is_compliant, recorded_at`

func (r *postgresRepo) CreateLog(ctx context.Context, log *Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO temperature_logs (id, delivery_id, store_id, temperature, location,
		                              recorded_by, is_manual, sensor_id, is_compliant, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		log.ID, log.DeliveryID, log.StoreID, log.Temperature, log.Location,
		log.RecordedBy, log.IsManual, log.SensorID, log.IsCompliant, log.RecordedAt)
	return err
}

func (r *postgresRepo) ListLogsByStore(ctx context.Context, storeID string, limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryLogs(ctx, `
		SELECT `+logColumns+` FROM temperature_logs
		WHERE store_id=$1 ORDER BY recorded_at DESC LIMIT $2`, storeID, limit)
}

func (r *postgresRepo) ListLogsByDelivery(ctx context.Context, deliveryID string) ([]*Log, error) {
	return r.queryLogs(ctx, `
		SELECT `+logColumns+` FROM temperature_logs
		WHERE delivery_id=$1 ORDER BY recorded_at ASC`, deliveryID)
}

func (r *postgresRepo) ListNonCompliantSince(ctx context.Context, since time.Time) ([]*Log, error) {
	return r.queryLogs(ctx, `
		SELECT `+logColumns+` FROM temperature_logs
		WHERE is_compliant = false AND recorded_at >= $1
		ORDER BY recorded_at ASC`, since)
}

func (r *postgresRepo) queryLogs(ctx context.Context, query string, args ...interface{}) ([]*Log, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []*Log
	for rows.Next() {
		l := &Log{}
		var deliveryID sql.NullString
		if err := rows.Scan(&l.ID, &deliveryID, &l.StoreID, &l.Temperature, &l.Location,
			&l.RecordedBy, &l.IsManual, &l.SensorID, &l.IsCompliant, &l.RecordedAt); err != nil {
			return nil, err
		}
		if deliveryID.Valid {
			uid, _ := uuid.Parse(deliveryID.String)
			l.DeliveryID = &uid
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
