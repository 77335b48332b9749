package service

import (
	"context"
	"fmt"

	"shopsmart/internal/domain"
	"shopsmart/internal/repository"
)

// CartLine is a cart row joined with its product details
type CartLine struct {
	domain.CartItem
	Product *domain.Product `json:"product"`
}

// CartService defines the interface for cart business logic. All operations
// are scoped to the calling user; the cart is the only input the checkout
// workflow trusts.
type CartService interface {
	GetCart(ctx context.Context, userID int64) ([]*CartLine, error)
	AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartLine, error)
	UpdateCartItem(ctx context.Context, userID, productID int64, qty int) (*CartLine, error)
	RemoveFromCart(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart retrieves the user's cart rows joined with product details.
// Products deleted since being added are returned with a nil product.
func (s *cartService) GetCart(ctx context.Context, userID int64) ([]*CartLine, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	lines := make([]*CartLine, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil && err != repository.ErrProductNotFound {
			return nil, fmt.Errorf("failed to resolve cart product: %w", err)
		}
		lines = append(lines, &CartLine{CartItem: *item, Product: product})
	}

	return lines, nil
}

// AddToCart adds quantity to the user's cart with upsert-by-increment
// semantics: an existing (user, product) row grows by qty rather than being
// replaced or duplicated. The product must exist and hold at least qty
// in stock.
func (s *cartService) AddToCart(ctx context.Context, userID, productID int64, qty int) (*CartLine, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if product.Inventory < qty {
		return nil, fmt.Errorf("%w for product %q", repository.ErrInsufficientStock, product.Name)
	}

	item, err := s.cartRepo.Add(ctx, userID, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	return &CartLine{CartItem: *item, Product: product}, nil
}

// UpdateCartItem sets the row's quantity to exactly qty (absolute-set, not
// increment). A missing row is reported as ErrCartItemNotFound.
func (s *cartService) UpdateCartItem(ctx context.Context, userID, productID int64, qty int) (*CartLine, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if product.Inventory < qty {
		return nil, fmt.Errorf("%w for product %q", repository.ErrInsufficientStock, product.Name)
	}

	item, err := s.cartRepo.SetQuantity(ctx, userID, productID, qty)
	if err != nil {
		if err == repository.ErrCartItemNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return &CartLine{CartItem: *item, Product: product}, nil
}

// RemoveFromCart deletes the row for a (user, product) pair
func (s *cartService) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		if err == repository.ErrCartItemNotFound {
			return err
		}
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

// ClearCart removes all of the user's cart rows; clearing an already empty
// cart succeeds
func (s *cartService) ClearCart(ctx context.Context, userID int64) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
