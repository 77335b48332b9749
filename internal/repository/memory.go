package repository

import (
	"sync"

	"shopsmart/internal/domain"
)

// MemoryStore is the in-memory backing store: key-indexed collections with
// per-entity-type sequential ids, owned by one struct constructed at startup
// and shared by the memory repositories. All access goes through mu; nothing
// here survives a process restart.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[int64]*domain.User
	categories    map[int64]*domain.Category
	products      map[int64]*domain.Product
	orders        map[int64]*domain.Order
	orderItems    map[int64]*domain.OrderItem
	cartItems     map[int64]*domain.CartItem
	refreshTokens map[string]*domain.RefreshToken

	userSeq      int64
	categorySeq  int64
	productSeq   int64
	orderSeq     int64
	orderItemSeq int64
	cartItemSeq  int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*domain.User),
		categories:    make(map[int64]*domain.Category),
		products:      make(map[int64]*domain.Product),
		orders:        make(map[int64]*domain.Order),
		orderItems:    make(map[int64]*domain.OrderItem),
		cartItems:     make(map[int64]*domain.CartItem),
		refreshTokens: make(map[string]*domain.RefreshToken),
	}
}

func (s *MemoryStore) nextUserID() int64 {
	s.userSeq++
	return s.userSeq
}

func (s *MemoryStore) nextCategoryID() int64 {
	s.categorySeq++
	return s.categorySeq
}

func (s *MemoryStore) nextProductID() int64 {
	s.productSeq++
	return s.productSeq
}

func (s *MemoryStore) nextOrderID() int64 {
	s.orderSeq++
	return s.orderSeq
}

func (s *MemoryStore) nextOrderItemID() int64 {
	s.orderItemSeq++
	return s.orderItemSeq
}

func (s *MemoryStore) nextCartItemID() int64 {
	s.cartItemSeq++
	return s.cartItemSeq
}
