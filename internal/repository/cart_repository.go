package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopsmart/internal/domain"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository defines the interface for cart data access. Rows are keyed
// by (userID, productID); at most one row exists per pair.
type CartRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*domain.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID int64) (*domain.CartItem, error)
	// Add upserts by increment: an existing row's quantity grows by qty,
	// otherwise a new row is inserted.
	Add(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error)
	// SetQuantity replaces the row's quantity. Absent rows are reported as
	// ErrCartItemNotFound, never created.
	SetQuantity(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error)
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a postgres-backed CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// ListByUser retrieves all cart rows for a user in insertion order
func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// FindByUserAndProduct retrieves the single row for a (user, product) pair
func (r *cartRepository) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return item, nil
}

// Add upserts by increment, relying on the unique (user_id, product_id)
// constraint
func (r *cartRepository) Add(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID, qty).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	return item, nil
}

// SetQuantity replaces the quantity of an existing row
func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID int64, qty int) (*domain.CartItem, error) {
	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE user_id = $1 AND product_id = $2
		RETURNING id, user_id, product_id, quantity
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, userID, productID, qty).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return item, nil
}

// Remove deletes the row for a (user, product) pair. Absent rows are
// reported as ErrCartItemNotFound.
func (r *cartRepository) Remove(ctx context.Context, userID, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// Clear deletes all of a user's cart rows. Clearing an empty cart is a no-op.
func (r *cartRepository) Clear(ctx context.Context, userID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
