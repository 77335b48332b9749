package repository

import (
	"context"
	"time"

	"shopsmart/internal/domain"
)

type memoryUserRepository struct {
	store *MemoryStore
}

// NewMemoryUserRepository creates a UserRepository over the in-memory store
func NewMemoryUserRepository(store *MemoryStore) UserRepository {
	return &memoryUserRepository{store: store}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrUserAlreadyExists
		}
	}

	user.ID = s.nextUserID()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return cloneUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Address != nil {
		user.Address = *patch.Address
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	user.UpdatedAt = time.Now()

	return cloneUser(user), nil
}

type memoryRefreshTokenRepository struct {
	store *MemoryStore
}

// NewMemoryRefreshTokenRepository creates a RefreshTokenRepository over the
// in-memory store
func NewMemoryRefreshTokenRepository(store *MemoryStore) RefreshTokenRepository {
	return &memoryRefreshTokenRepository{store: store}
}

func (r *memoryRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *token
	s.refreshTokens[token.Token] = &c
	return nil
}

func (r *memoryRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	refreshToken, ok := s.refreshTokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, ErrRefreshTokenRevoked
	}

	c := *refreshToken
	return &c, nil
}

func (r *memoryRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshToken, ok := s.refreshTokens[token]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}
