package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopsmart/internal/domain"
	"shopsmart/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrIllegalTransition  = errors.New("illegal order status transition")
	ErrShippingAddrNeeded = errors.New("shipping address is required")
)

// OrderItemDetail is a line item joined with its product details. Product is
// nil when the product has since been deleted; the frozen price and quantity
// remain authoritative.
type OrderItemDetail struct {
	domain.OrderItem
	Product *domain.Product `json:"product,omitempty"`
}

// OrderDetail is an order with its expanded line items
type OrderDetail struct {
	domain.Order
	Items []*OrderItemDetail `json:"items"`
}

// OrderService defines the interface for order business logic
type OrderService interface {
	// PlaceOrder converts the user's current cart into a durable order.
	// Line items come from the server-side cart, never from the caller.
	PlaceOrder(ctx context.Context, userID int64, shippingAddress string) (*OrderDetail, error)
	GetOrder(ctx context.Context, id int64) (*OrderDetail, error)
	ListOrders(ctx context.Context, userID int64) ([]*OrderDetail, error)
	ListAllOrders(ctx context.Context) ([]*OrderDetail, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository

	// enforceStatusFlow restricts status writes to the legal progression;
	// when false any of the five enum values may be written, matching the
	// permissive behavior this service replaced.
	enforceStatusFlow bool

	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	enforceStatusFlow bool,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:         orderRepo,
		cartRepo:          cartRepo,
		productRepo:       productRepo,
		enforceStatusFlow: enforceStatusFlow,
		logger:            logger,
	}
}

// checkoutLine pairs a cart row with its resolved product
type checkoutLine struct {
	item    *domain.CartItem
	product *domain.Product
}

// PlaceOrder runs the checkout workflow as an all-or-nothing unit:
//
//  1. load the cart (empty cart fails),
//  2. resolve and validate every line before touching inventory,
//  3. apply conditional stock decrements, rolling back the ones already
//     applied if any decrement loses a race,
//  4. persist the order with line items priced at this moment,
//  5. clear the cart.
//
// A failure at any step leaves inventory exactly as it was.
func (s *orderService) PlaceOrder(ctx context.Context, userID int64, shippingAddress string) (*OrderDetail, error) {
	if shippingAddress == "" {
		return nil, ErrShippingAddrNeeded
	}

	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	// Validate every line before any mutation. Products can be deleted by an
	// admin after being added to a cart, so absence here is a normal failure.
	lines := make([]*checkoutLine, 0, len(cartItems))
	for _, item := range cartItems {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return nil, fmt.Errorf("%w: product %d", repository.ErrProductNotFound, item.ProductID)
			}
			return nil, fmt.Errorf("failed to resolve product %d: %w", item.ProductID, err)
		}
		if product.Inventory < item.Quantity {
			return nil, fmt.Errorf("%w for product %q", repository.ErrInsufficientStock, product.Name)
		}
		lines = append(lines, &checkoutLine{item: item, product: product})
	}

	// Apply conditional decrements in cart order, keeping an undo log. The
	// pre-validation above does not protect against a concurrent checkout
	// draining stock between the check and the decrement, so each decrement
	// re-checks atomically and a loss rolls everything back.
	applied := make([]*checkoutLine, 0, len(lines))
	rollback := func() {
		for _, line := range applied {
			if err := s.productRepo.IncrementStock(ctx, line.product.ID, line.item.Quantity); err != nil {
				s.logger.Error("Failed to roll back stock decrement",
					zap.Int64("product_id", line.product.ID),
					zap.Int("quantity", line.item.Quantity),
					zap.Error(err),
				)
			}
		}
	}

	var totalAmount float64
	orderItems := make([]*domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if err := s.productRepo.DecrementStock(ctx, line.product.ID, line.item.Quantity); err != nil {
			rollback()
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w for product %q", repository.ErrInsufficientStock, line.product.Name)
			}
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", line.product.ID, err)
		}
		applied = append(applied, line)

		// Freeze the product's current price into the line item
		totalAmount += line.product.Price * float64(line.item.Quantity)
		orderItems = append(orderItems, &domain.OrderItem{
			ProductID: line.product.ID,
			Quantity:  line.item.Quantity,
			Price:     line.product.Price,
		})
	}

	order := &domain.Order{
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: shippingAddress,
		CreatedAt:       time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order, orderItems); err != nil {
		rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		// The order exists and stock is decremented; a stale cart is the
		// lesser problem, so log rather than fail the checkout.
		s.logger.Error("Failed to clear cart after checkout",
			zap.Int64("user_id", userID),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	detail := &OrderDetail{Order: *order, Items: make([]*OrderItemDetail, 0, len(orderItems))}
	for i, item := range orderItems {
		detail.Items = append(detail.Items, &OrderItemDetail{
			OrderItem: *item,
			Product:   lines[i].product,
		})
	}

	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Float64("total_amount", totalAmount),
		zap.Int("line_items", len(orderItems)),
	)

	return detail, nil
}

// GetOrder retrieves an order with expanded line items. Ownership checks
// happen at the API layer.
func (s *orderService) GetOrder(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return s.expand(ctx, order)
}

// ListOrders retrieves a single user's orders with expanded items
func (s *orderService) ListOrders(ctx context.Context, userID int64) ([]*OrderDetail, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.expandAll(ctx, orders)
}

// ListAllOrders retrieves every order with expanded items. Admin-only at the
// API layer.
func (s *orderService) ListAllOrders(ctx context.Context) ([]*OrderDetail, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return s.expandAll(ctx, orders)
}

func (s *orderService) expandAll(ctx context.Context, orders []*domain.Order) ([]*OrderDetail, error) {
	details := make([]*OrderDetail, 0, len(orders))
	for _, order := range orders {
		detail, err := s.expand(ctx, order)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *orderService) expand(ctx context.Context, order *domain.Order) (*OrderDetail, error) {
	items, err := s.orderRepo.ListItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	detail := &OrderDetail{Order: *order, Items: make([]*OrderItemDetail, 0, len(items))}
	for _, item := range items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil && err != repository.ErrProductNotFound {
			return nil, fmt.Errorf("failed to resolve order product: %w", err)
		}
		detail.Items = append(detail.Items, &OrderItemDetail{OrderItem: *item, Product: product})
	}

	return detail, nil
}

// UpdateStatus writes a new status for an order. The value must be one of
// the five defined statuses; when status flow enforcement is on, it must
// also be a legal transition from the current status.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if s.enforceStatusFlow {
		current, err := s.orderRepo.FindByID(ctx, id)
		if err != nil {
			if err == repository.ErrOrderNotFound {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get order: %w", err)
		}
		if !current.Status.CanTransitionTo(status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, status)
		}
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", id),
		zap.String("status", string(status)),
	)

	return order, nil
}
