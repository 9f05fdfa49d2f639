package routing

import (
	"context"
	"database/sql"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListActiveDriverStops(ctx context.Context, driverID string) ([]Stop, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.order_id, COALESCE(s.name,''), d.delivery_lat, d.delivery_lon
		FROM deliveries d
		JOIN stores s ON s.id = d.store_id
		WHERE d.driver_id = $1
		  AND d.status IN ('ASSIGNED','IN_TRANSIT')
		  AND d.delivery_lat IS NOT NULL
		  AND d.delivery_lon IS NOT NULL
		ORDER BY d.created_at ASC`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []Stop
	for rows.Next() {
		var s Stop
		if err := rows.Scan(&s.DeliveryID, &s.OrderID, &s.Label, &s.Lat, &s.Lon); err != nil {
			return nil, err
		}
		s.Priority = PriorityMedium
		stops = append(stops, s)
	}
	return stops, rows.Err()
}
