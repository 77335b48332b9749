package repository

import (
	"context"
	"sort"

	"shopsmart/internal/domain"
)

type memoryCartRepository struct {
	store *MemoryStore
}

// NewMemoryCartRepository creates a CartRepository over the in-memory store
func NewMemoryCartRepository(store *MemoryStore) CartRepository {
	return &memoryCartRepository{store: store}
}

func (r *memoryCartRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.CartItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []*domain.CartItem{}
	for _, item := range s.cartItems {
		if item.UserID == userID {
			c := *item
			items = append(items, &c)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})

	return items, nil
}

func (r *memoryCartRepository) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	item := s.findCartItem(userID, productID)
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	c := *item
	return &c, nil
}

// findCartItem must be called with the store lock held
func (s *MemoryStore) findCartItem(userID, productID int64) *domain.CartItem {
	for _, item := range s.cartItems {
		if item.UserID == userID && item.ProductID == productID {
			return item
		}
	}
	return nil
}

func (r *memoryCartRepository) Add(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findCartItem(userID, productID); existing != nil {
		existing.Quantity += qty
		c := *existing
		return &c, nil
	}

	item := &domain.CartItem{
		ID:        s.nextCartItemID(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	s.cartItems[item.ID] = item

	c := *item
	return &c, nil
}

func (r *memoryCartRepository) SetQuantity(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findCartItem(userID, productID)
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	item.Quantity = qty
	c := *item
	return &c, nil
}

func (r *memoryCartRepository) Remove(ctx context.Context, userID, productID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findCartItem(userID, productID)
	if item == nil {
		return ErrCartItemNotFound
	}

	delete(s.cartItems, item.ID)
	return nil
}

func (r *memoryCartRepository) Clear(ctx context.Context, userID int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.cartItems {
		if item.UserID == userID {
			delete(s.cartItems, id)
		}
	}
	return nil
}

type memoryOrderRepository struct {
	store *MemoryStore
}

// NewMemoryOrderRepository creates an OrderRepository over the in-memory
// store
func NewMemoryOrderRepository(store *MemoryStore) OrderRepository {
	return &memoryOrderRepository{store: store}
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextOrderID()
	o := *order
	s.orders[order.ID] = &o

	for _, item := range items {
		item.ID = s.nextOrderItemID()
		item.OrderID = order.ID
		c := *item
		s.orderItems[item.ID] = &c
	}

	return nil
}

func (r *memoryOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	c := *order
	return &c, nil
}

func (r *memoryOrderRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return r.list(func(order *domain.Order) bool { return order.UserID == userID })
}

func (r *memoryOrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(func(*domain.Order) bool { return true })
}

func (r *memoryOrderRepository) list(keep func(*domain.Order) bool) ([]*domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []*domain.Order{}
	for _, order := range s.orders {
		if keep(order) {
			c := *order
			orders = append(orders, &c)
		}
	}

	// Newest first; ids break ties for orders created within one tick
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return orders, nil
}

func (r *memoryOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}

	order.Status = status
	c := *order
	return &c, nil
}

func (r *memoryOrderRepository) ListItems(ctx context.Context, orderID int64) ([]*domain.OrderItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []*domain.OrderItem{}
	for _, item := range s.orderItems {
		if item.OrderID == orderID {
			c := *item
			items = append(items, &c)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})

	return items, nil
}
