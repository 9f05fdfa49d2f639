package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products
		  (id, name, description, category, price, currency, sku,
		   shelf_life_days, storage_min, storage_max, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Currency, p.SKU,
		p.ShelfLifeDays, p.StorageMin, p.StorageMax, p.IsActive)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return scanProduct(r.db.QueryRowContext(ctx, `
		SELECT id,name,description,category,price,currency,sku,
		       shelf_life_days,storage_min,storage_max,is_active,created_at,updated_at
		FROM products WHERE id=$1`, uid))
}

func (r *postgresRepo) List(ctx context.Context, category string, activeOnly bool) ([]*Product, error) {
	query := `SELECT id,name,description,category,price,currency,sku,
	                 shelf_life_days,storage_min,storage_max,is_active,created_at,updated_at
	          FROM products WHERE 1=1`
	args := []interface{}{}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND category=$%d`, len(args))
	}
	if activeOnly {
		query += ` AND is_active=true`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
			&p.Currency, &p.SKU, &p.ShelfLifeDays, &p.StorageMin, &p.StorageMax,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) UpdatePrice(ctx context.Context, id string, price float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET price=$1, updated_at=$2 WHERE id=$3`,
		price, time.Now(), id)
	return err
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active=$1, updated_at=$2 WHERE id=$3`,
		active, time.Now(), id)
	return err
}

func scanProduct(row *sql.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.Currency, &p.SKU, &p.ShelfLifeDays, &p.StorageMin, &p.StorageMax,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
