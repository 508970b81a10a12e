package service

import (
	"context"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"
)

type ProductService interface {
	// List returns products, optionally including deactivated rows.
	List(ctx context.Context, includeInactive bool) ([]model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)
	UpdatePhoto(ctx context.Context, sku, photoURL string, actor model.Actor) (*model.Product, error)
	Restore(ctx context.Context, sku string, actor model.Actor) (*model.Product, error)
	// RefreshCache drops the product cache and reports the age it had.
	RefreshCache(ctx context.Context) (time.Duration, error)
}

type productService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) ProductService {
	return &productService{products: products}
}

func (s *productService) List(ctx context.Context, includeInactive bool) ([]model.Product, error) {
	all, err := s.products.GetAll(ctx, true)
	if err != nil {
		return nil, err
	}
	if includeInactive {
		return all, nil
	}
	active := make([]model.Product, 0, len(all))
	for _, p := range all {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	p, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierror.ErrProductNotFound
	}
	return p, nil
}

func (s *productService) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.products.Search(ctx, query, limit)
}

func (s *productService) UpdatePhoto(ctx context.Context, sku, photoURL string, actor model.Actor) (*model.Product, error) {
	p, err := s.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return s.products.UpdatePhoto(ctx, p, photoURL, actor.UpdatedBy())
}

func (s *productService) Restore(ctx context.Context, sku string, actor model.Actor) (*model.Product, error) {
	p, err := s.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if p.Active {
		return p, nil
	}
	return s.products.UpdateActive(ctx, p, true, actor.UpdatedBy())
}

func (s *productService) RefreshCache(ctx context.Context) (time.Duration, error) {
	age := s.products.CacheAge()
	s.products.InvalidateCache()
	if _, err := s.products.GetAll(ctx, false); err != nil {
		return age, err
	}
	return age, nil
}
