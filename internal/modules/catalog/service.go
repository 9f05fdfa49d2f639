package catalog

import (
	"context"
	"strings"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
	"github.com/google/uuid"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, category string, activeOnly bool) ([]*Product, error)
	UpdatePrice(ctx context.Context, id string, req UpdatePriceRequest) (*Product, error)
	Deactivate(ctx context.Context, id string) error
}

type service struct{ repo Repository }

// NewService creates a new catalog service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, errs.Validationf("name is required")
	}
	if req.Price < 0 {
		return nil, errs.Validationf("price must not be negative")
	}
	if req.StorageMin != nil && req.StorageMax != nil && *req.StorageMin > *req.StorageMax {
		return nil, errs.Validationf("storage_min must not exceed storage_max")
	}
	currency := req.Currency
	if currency == "" {
		currency = "ZMW"
	}

	p := &Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Category:      strings.ToUpper(req.Category),
		Price:         req.Price,
		Currency:      currency,
		SKU:           req.SKU,
		ShelfLifeDays: req.ShelfLifeDays,
		StorageMin:    req.StorageMin,
		StorageMax:    req.StorageMax,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, &errs.NotFoundError{Entity: "product", Ref: id}
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context, category string, activeOnly bool) ([]*Product, error) {
	return s.repo.List(ctx, strings.ToUpper(category), activeOnly)
}

func (s *service) UpdatePrice(ctx context.Context, id string, req UpdatePriceRequest) (*Product, error) {
	if req.Price < 0 {
		return nil, errs.Validationf("price must not be negative")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, &errs.NotFoundError{Entity: "product", Ref: id}
	}
	if err := s.repo.UpdatePrice(ctx, id, req.Price); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return &errs.NotFoundError{Entity: "product", Ref: id}
	}
	return s.repo.SetActive(ctx, id, false)
}
