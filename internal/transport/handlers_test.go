package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopsmart/internal/domain"
	"shopsmart/internal/middleware"
	"shopsmart/internal/repository"
	"shopsmart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "transport-test-secret"

type testEnv struct {
	router   chi.Router
	users    service.UserService
	products repository.ProductRepository
	cart     repository.CartRepository
	orders   service.OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	userRepo := repository.NewMemoryUserRepository(store)
	refreshTokenRepo := repository.NewMemoryRefreshTokenRepository(store)
	categoryRepo := repository.NewMemoryCategoryRepository(store)
	productRepo := repository.NewMemoryProductRepository(store)
	cartRepo := repository.NewMemoryCartRepository(store)
	orderRepo := repository.NewMemoryOrderRepository(store)

	logger := zap.NewNop()

	userService := service.NewUserService(userRepo, refreshTokenRepo, testJWTSecret)
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, true, logger)

	router := chi.NewRouter()
	authMiddleware := middleware.AuthMiddleware(testJWTSecret, logger)
	adminMiddleware := middleware.RequireAdmin(logger)

	NewUserHandler(userService, logger).RegisterRoutes(router, authMiddleware)
	NewCatalogHandler(catalogService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	NewOrderHandler(orderService, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)

	return &testEnv{
		router:   router,
		users:    userService,
		products: productRepo,
		cart:     cartRepo,
		orders:   orderService,
	}
}

func (e *testEnv) token(t *testing.T, userID int64, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) createProduct(t *testing.T, name string, price float64, inventory int, featured bool) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:      name,
		Price:     price,
		Inventory: inventory,
		Featured:  featured,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, e.products.Create(context.Background(), product))
	return product
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/users/register", "", map[string]interface{}{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password123",
		"confirm_password": "password123",
		"name":             "Alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var profile UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.Equal(t, "alice", profile.Username)
	require.Equal(t, domain.RoleUser, profile.Role)

	// The password hash must never appear in the response
	require.NotContains(t, w.Body.String(), "password_hash")

	// Duplicate registration conflicts
	w = env.do(t, http.MethodPost, "/api/users/register", "", map[string]interface{}{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Login with the right password succeeds
	w = env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	// Wrong password is a 401
	w = env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductMutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 5, false)

	userToken := env.token(t, 1, domain.RoleUser)
	adminToken := env.token(t, 2, domain.RoleAdmin)

	body := map[string]interface{}{"price": 20.00}
	path := fmt.Sprintf("/api/products/%d", product.ID)

	// Unauthenticated
	w := env.do(t, http.MethodPut, path, "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Authenticated but not admin
	w = env.do(t, http.MethodPut, path, userToken, body)
	require.Equal(t, http.StatusForbidden, w.Code)

	// The product is untouched after the rejected attempts
	got, err := env.products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 10.00, got.Price)

	// Admin succeeds
	w = env.do(t, http.MethodPut, path, adminToken, body)
	require.Equal(t, http.StatusOK, w.Code)

	got, err = env.products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 20.00, got.Price)
}

func TestFeaturedRouteIsNotParsedAsProductID(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, "Plain", 5.00, 5, false)
	featured := env.createProduct(t, "Shiny", 15.00, 5, true)

	w := env.do(t, http.MethodGet, "/api/products/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []*domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	require.Equal(t, featured.ID, products[0].ID)
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/products/999", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/products/not-a-number", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartAddAndUpdateFlow(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 5, false)
	token := env.token(t, 1, domain.RoleUser)

	w := env.do(t, http.MethodPost, "/api/cart", token, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Quantity below one fails validation before reaching the service
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", product.ID), token, map[string]interface{}{
		"quantity": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Absolute set
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", product.ID), token, map[string]interface{}{
		"quantity": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var line service.CartLine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &line))
	require.Equal(t, 4, line.Quantity)

	// Asking for more than the stock is rejected
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", product.ID), token, map[string]interface{}{
		"quantity": 9,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutFailureLeavesInventoryUnchanged(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 1, false)
	token := env.token(t, 1, domain.RoleUser)

	// Put one unit in the cart, then drain the stock behind the cart's back
	_, err := env.cart.Add(context.Background(), 1, product.ID, 1)
	require.NoError(t, err)
	require.NoError(t, env.products.DecrementStock(context.Background(), product.ID, 1))

	w := env.do(t, http.MethodPost, "/api/orders", token, map[string]string{
		"shipping_address": "1 Main St",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	got, err := env.products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Inventory)

	// The cart still holds the line
	items, err := env.cart.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestOrderOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 5, false)

	ownerToken := env.token(t, 1, domain.RoleUser)
	otherToken := env.token(t, 2, domain.RoleUser)
	adminToken := env.token(t, 3, domain.RoleAdmin)

	_, err := env.cart.Add(context.Background(), 1, product.ID, 1)
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/orders", ownerToken, map[string]string{
		"shipping_address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order service.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	path := fmt.Sprintf("/api/orders/%d", order.ID)

	// Owner can read it
	w = env.do(t, http.MethodGet, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A different user cannot
	w = env.do(t, http.MethodGet, path, otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// An admin can
	w = env.do(t, http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOrderStatusUpdateIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 5, false)

	ownerToken := env.token(t, 1, domain.RoleUser)
	adminToken := env.token(t, 2, domain.RoleAdmin)

	_, err := env.cart.Add(context.Background(), 1, product.ID, 1)
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/orders", ownerToken, map[string]string{
		"shipping_address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order service.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	path := fmt.Sprintf("/api/orders/%d/status", order.ID)

	// Non-admin is rejected
	w = env.do(t, http.MethodPut, path, ownerToken, map[string]string{"status": "processing"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Unknown status fails validation
	w = env.do(t, http.MethodPut, path, adminToken, map[string]string{"status": "refunded"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Skipping a step is rejected
	w = env.do(t, http.MethodPut, path, adminToken, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The legal next step works
	w = env.do(t, http.MethodPut, path, adminToken, map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSeesAllOrders(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "Widget", 10.00, 10, false)

	adminToken := env.token(t, 9, domain.RoleAdmin)

	for _, userID := range []int64{1, 2} {
		_, err := env.cart.Add(context.Background(), userID, product.ID, 1)
		require.NoError(t, err)
		w := env.do(t, http.MethodPost, "/api/orders", env.token(t, userID, domain.RoleUser), map[string]string{
			"shipping_address": "1 Main St",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Admin listing spans users
	w := env.do(t, http.MethodGet, "/api/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var all []*service.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)

	// A regular user only sees their own
	w = env.do(t, http.MethodGet, "/api/orders", env.token(t, 1, domain.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mine []*service.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
}

func TestCreateCategoryValidatesSlug(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.token(t, 1, domain.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{
		"name": "Electronics",
		"slug": "Not A Slug!",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{
		"name": "Electronics",
		"slug": "electronics",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate slug conflicts
	w = env.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{
		"name": "Gadgets",
		"slug": "electronics",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestEmptyCartCheckout(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, 1, domain.RoleUser)

	w := env.do(t, http.MethodPost, "/api/orders", token, map[string]string{
		"shipping_address": "1 Main St",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
