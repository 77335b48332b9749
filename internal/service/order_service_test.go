package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopsmart/internal/domain"
	"shopsmart/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderTestEnv struct {
	orders   OrderService
	cart     repository.CartRepository
	products repository.ProductRepository
}

func newOrderTestEnv(t *testing.T, enforceStatusFlow bool) *orderTestEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	orderRepo := repository.NewMemoryOrderRepository(store)
	cartRepo := repository.NewMemoryCartRepository(store)
	productRepo := repository.NewMemoryProductRepository(store)

	return &orderTestEnv{
		orders:   NewOrderService(orderRepo, cartRepo, productRepo, enforceStatusFlow, zap.NewNop()),
		cart:     cartRepo,
		products: productRepo,
	}
}

func (e *orderTestEnv) createProduct(t *testing.T, name string, price float64, inventory int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:      name,
		Price:     price,
		Inventory: inventory,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, e.products.Create(context.Background(), product))
	return product
}

func (e *orderTestEnv) inventory(t *testing.T, productID int64) int {
	t.Helper()
	product, err := e.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Inventory
}

func TestPlaceOrderHappyPath(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 2)
	require.NoError(t, err)

	order, err := env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Equal(t, 20.00, order.TotalAmount)
	require.Len(t, order.Items, 1)
	require.Equal(t, product.ID, order.Items[0].ProductID)
	require.Equal(t, 2, order.Items[0].Quantity)
	require.Equal(t, 10.00, order.Items[0].Price)

	// Inventory is decremented and the cart is emptied
	require.Equal(t, 3, env.inventory(t, product.ID))

	items, err := env.cart.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPlaceOrderFailureLeavesEverythingUntouched(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	inStock := env.createProduct(t, "Widget", 10.00, 5)
	outOfStock := env.createProduct(t, "Gadget", 4.50, 0)

	_, err := env.cart.Add(ctx, 1, inStock.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, 1, outOfStock.ID, 1)
	require.NoError(t, err)

	_, err = env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.ErrorIs(t, err, repository.ErrInsufficientStock)

	// No partial decrement: both products keep their original inventory
	require.Equal(t, 5, env.inventory(t, inStock.ID))
	require.Equal(t, 0, env.inventory(t, outOfStock.ID))

	// The cart survives the failed checkout
	items, err := env.cart.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// No order was created
	orders, err := env.orders.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrderRejectsDeletedProduct(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.products.Delete(ctx, product.ID))

	_, err = env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	env := newOrderTestEnv(t, true)

	_, err := env.orders.PlaceOrder(context.Background(), 1, "1 Main St")
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderRequiresShippingAddress(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	_, err = env.orders.PlaceOrder(ctx, 1, "")
	require.ErrorIs(t, err, ErrShippingAddrNeeded)

	// Nothing was consumed
	require.Equal(t, 5, env.inventory(t, product.ID))
}

func TestPlaceOrderDoesNotTouchOtherCarts(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 10)
	_, err := env.cart.Add(ctx, 1, product.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, 2, product.ID, 3)
	require.NoError(t, err)

	_, err = env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.NoError(t, err)

	// User 2's cart is intact
	items, err := env.cart.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
}

func TestPlaceOrderFreezesPriceAtCheckout(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	order, err := env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.NoError(t, err)

	// A later price change must not affect the stored line item
	newPrice := 25.00
	_, err = env.products.Update(ctx, product.ID, domain.ProductPatch{Price: &newPrice})
	require.NoError(t, err)

	stored, err := env.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 10.00, stored.Items[0].Price)
	require.Equal(t, 10.00, stored.TotalAmount)
}

func TestUpdateStatusEnforcesFlow(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	order, err := env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.NoError(t, err)

	// pending -> shipped skips processing and is rejected
	_, err = env.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
	require.ErrorIs(t, err, ErrIllegalTransition)

	// The legal progression works step by step
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := env.orders.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err, "transition to %s", status)
		require.Equal(t, status, updated.Status)
	}

	// delivered is terminal
	_, err = env.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateStatusWithoutFlowEnforcement(t *testing.T) {
	env := newOrderTestEnv(t, false)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 5)
	_, err := env.cart.Add(ctx, 1, product.ID, 1)
	require.NoError(t, err)

	order, err := env.orders.PlaceOrder(ctx, 1, "1 Main St")
	require.NoError(t, err)

	// Any valid status may be written directly
	updated, err := env.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDelivered, updated.Status)

	// But unknown statuses are still rejected
	_, err = env.orders.UpdateStatus(ctx, order.ID, domain.OrderStatus("refunded"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	env := newOrderTestEnv(t, true)

	_, err := env.orders.UpdateStatus(context.Background(), 42, domain.OrderStatusProcessing)
	require.True(t, errors.Is(err, repository.ErrOrderNotFound))
}

func TestListOrdersNewestFirst(t *testing.T) {
	env := newOrderTestEnv(t, true)
	ctx := context.Background()

	product := env.createProduct(t, "Widget", 10.00, 10)

	var orderIDs []int64
	for i := 0; i < 3; i++ {
		_, err := env.cart.Add(ctx, 1, product.ID, 1)
		require.NoError(t, err)
		order, err := env.orders.PlaceOrder(ctx, 1, "1 Main St")
		require.NoError(t, err)
		orderIDs = append(orderIDs, order.ID)
	}

	orders, err := env.orders.ListOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, orderIDs[2], orders[0].ID)
	require.Equal(t, orderIDs[0], orders[2].ID)
}
