package service

import (
	"context"
	"fmt"
	"time"

	"shopsmart/internal/domain"
	"shopsmart/internal/repository"
)

// CatalogService defines the interface for category and product business
// logic. Mutations are admin-gated at the API layer.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, slug string) (*domain.Category, error)

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// ListCategories retrieves all categories
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory creates a category with a unique slug
func (s *catalogService) CreateCategory(ctx context.Context, name, slug string) (*domain.Category, error) {
	category := &domain.Category{
		Name: name,
		Slug: slug,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// ListProducts retrieves products matching the filter
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListFeaturedProducts retrieves featured products, capped at limit when
// limit > 0
func (s *catalogService) ListFeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error) {
	products, err := s.productRepo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// CreateProduct stores a new product with a creation timestamp
func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// UpdateProduct merges the supplied fields into an existing product
func (s *catalogService) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.productRepo.Update(ctx, id, patch)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product. Cart rows referencing it are left in
// place; checkout resolves them defensively.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if err == repository.ErrProductNotFound {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
