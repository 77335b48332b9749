package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"shopsmart/internal/config"
	custommiddleware "shopsmart/internal/middleware"
	"shopsmart/internal/repository"
	"shopsmart/internal/service"
	"shopsmart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Repositories bundles one storage backend's repository set
type Repositories struct {
	Users         repository.UserRepository
	RefreshTokens repository.RefreshTokenRepository
	Categories    repository.CategoryRepository
	Products      repository.ProductRepository
	Cart          repository.CartRepository
	Orders        repository.OrderRepository
}

// NewPostgresRepositories builds the repository set over a sql.DB handle
func NewPostgresRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:         repository.NewUserRepository(db),
		RefreshTokens: repository.NewRefreshTokenRepository(db),
		Categories:    repository.NewCategoryRepository(db),
		Products:      repository.NewProductRepository(db),
		Cart:          repository.NewCartRepository(db),
		Orders:        repository.NewOrderRepository(db),
	}
}

// NewMemoryRepositories builds the repository set over a shared in-process
// store
func NewMemoryRepositories() *Repositories {
	store := repository.NewMemoryStore()
	return &Repositories{
		Users:         repository.NewMemoryUserRepository(store),
		RefreshTokens: repository.NewMemoryRefreshTokenRepository(store),
		Categories:    repository.NewMemoryCategoryRepository(store),
		Products:      repository.NewMemoryProductRepository(store),
		Cart:          repository.NewMemoryCartRepository(store),
		Orders:        repository.NewMemoryOrderRepository(store),
	}
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
}

// NewServer wires repositories, services, and handlers into an http.Server.
// db may be nil when the memory backend is in use; redisClient may be nil
// when rate limiting is disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, repos *Repositories, db *sql.DB, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	if redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 100,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize services
	userService := service.NewUserService(repos.Users, repos.RefreshTokens, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(repos.Categories, repos.Products)
	cartService := service.NewCartService(repos.Cart, repos.Products)
	orderService := service.NewOrderService(repos.Orders, repos.Cart, repos.Products, cfg.Order.EnforceStatusFlow, logger)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	catalogHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	cartHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
