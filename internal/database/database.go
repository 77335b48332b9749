package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shopsmart/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service wraps the sql.DB handle used by the postgres repositories
type Service struct {
	db *sql.DB
}

// New opens a pooled connection to postgres using the pgx stdlib driver
func New(cfg config.DatabaseConfig) (*Service, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &Service{db: db}, nil
}

// DB exposes the underlying handle
func (s *Service) DB() *sql.DB {
	return s.db
}

// Health reports whether the database answers a ping along with pool stats
func (s *Service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"status": "up",
	}

	if err := s.db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
		return status
	}

	stats := s.db.Stats()
	status["open_connections"] = fmt.Sprintf("%d", stats.OpenConnections)
	status["in_use"] = fmt.Sprintf("%d", stats.InUse)
	status["idle"] = fmt.Sprintf("%d", stats.Idle)

	return status
}

// Close shuts down the connection pool
func (s *Service) Close() error {
	return s.db.Close()
}
