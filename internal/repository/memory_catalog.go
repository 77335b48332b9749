package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"shopsmart/internal/domain"
)

type memoryCategoryRepository struct {
	store *MemoryStore
}

// NewMemoryCategoryRepository creates a CategoryRepository over the
// in-memory store
func NewMemoryCategoryRepository(store *MemoryStore) CategoryRepository {
	return &memoryCategoryRepository{store: store}
}

func (r *memoryCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Slug == category.Slug {
			return ErrCategoryAlreadyExists
		}
	}

	category.ID = s.nextCategoryID()
	c := *category
	s.categories[category.ID] = &c
	return nil
}

func (r *memoryCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(s.categories))
	for _, category := range s.categories {
		c := *category
		categories = append(categories, &c)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	return categories, nil
}

func (r *memoryCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	c := *category
	return &c, nil
}

func (r *memoryCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, category := range s.categories {
		if category.Slug == slug {
			c := *category
			return &c, nil
		}
	}
	return nil, ErrCategoryNotFound
}

type memoryProductRepository struct {
	store *MemoryStore
}

// NewMemoryProductRepository creates a ProductRepository over the in-memory
// store
func NewMemoryProductRepository(store *MemoryStore) ProductRepository {
	return &memoryProductRepository{store: store}
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	return &c
}

func (r *memoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.nextProductID()
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memoryProductRepository) Update(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}
	if patch.Inventory != nil {
		product.Inventory = *patch.Inventory
	}
	if patch.Featured != nil {
		product.Featured = *patch.Featured
	}
	product.UpdatedAt = time.Now()

	return cloneProduct(product), nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return cloneProduct(product), nil
}

func matchesFilter(product *domain.Product, filter domain.ProductFilter) bool {
	if filter.CategoryID != nil && product.CategoryID != *filter.CategoryID {
		return false
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		term := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(product.Name), term) &&
			!strings.Contains(strings.ToLower(product.Description), term) {
			return false
		}
	}
	if filter.Featured != nil && product.Featured != *filter.Featured {
		return false
	}
	return true
}

func (r *memoryProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := []*domain.Product{}
	for _, product := range s.products {
		if matchesFilter(product, filter) {
			products = append(products, cloneProduct(product))
		}
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})

	return products, nil
}

func (r *memoryProductRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	featured := true
	products, err := r.List(ctx, domain.ProductFilter{Featured: &featured})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	return products, nil
}

func (r *memoryProductRepository) DecrementStock(ctx context.Context, id int64, qty int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if product.Inventory < qty {
		return ErrInsufficientStock
	}

	product.Inventory -= qty
	product.UpdatedAt = time.Now()
	return nil
}

func (r *memoryProductRepository) IncrementStock(ctx context.Context, id int64, qty int) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}

	product.Inventory += qty
	product.UpdatedAt = time.Now()
	return nil
}
