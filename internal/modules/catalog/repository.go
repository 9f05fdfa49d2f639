package catalog

import "context"

// Repository defines data access for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, category string, activeOnly bool) ([]*Product, error)
	UpdatePrice(ctx context.Context, id string, price float64) error
	SetActive(ctx context.Context, id string, active bool) error
}
