package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/pagination"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ProductPage is one page of the catalog together with its navigation metadata.
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Pagination pagination.Page   `json:"pagination"`
	TotalCount int               `json:"total_count"`
}

// CatalogService serves read-only product queries.
type CatalogService interface {
	ListProducts(ctx context.Context, page int, filter domain.ProductFilter) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	pageSize    int
	newBackOff  backOffFactory
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, pageSize int) CatalogService {
	if pageSize < 1 {
		pageSize = pagination.DefaultPageSize
	}
	return &catalogService{
		productRepo: productRepo,
		pageSize:    pageSize,
		newBackOff:  defaultBackOff,
	}
}

// ListProducts counts first, then loads the window for page.
// Pages past the end return no products but valid metadata.
func (s *catalogService) ListProducts(ctx context.Context, page int, filter domain.ProductFilter) (*ProductPage, error) {
	total, err := retryRead(ctx, s.newBackOff, func() (int, error) {
		return s.productRepo.Count(ctx, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	p := pagination.Paginate(total, page, s.pageSize)

	products, err := retryRead(ctx, s.newBackOff, func() ([]*domain.Product, error) {
		return s.productRepo.List(ctx, filter, p.Skip, p.Take)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{
		Products:   products,
		Pagination: p,
		TotalCount: total,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return retryRead(ctx, s.newBackOff, func() (*domain.Product, error) {
		return s.productRepo.FindByID(ctx, id)
	})
}
