package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopsmart/internal/config"
	"shopsmart/internal/domain"
	"shopsmart/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// baseCategories are created on first startup so the catalog is browsable
// before an admin adds anything
var baseCategories = []domain.Category{
	{Name: "Electronics", Slug: "electronics"},
	{Name: "Clothing", Slug: "clothing"},
	{Name: "Home", Slug: "home"},
	{Name: "Beauty", Slug: "beauty"},
	{Name: "Sports", Slug: "sports"},
}

// Seed idempotently creates the default admin account and base categories.
// Rows that already exist are left alone.
func Seed(
	ctx context.Context,
	cfg config.SeedConfig,
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	logger *zap.Logger,
) error {
	if err := seedAdmin(ctx, cfg, userRepo, logger); err != nil {
		return err
	}
	return seedCategories(ctx, categoryRepo, logger)
}

func seedAdmin(ctx context.Context, cfg config.SeedConfig, userRepo repository.UserRepository, logger *zap.Logger) error {
	_, err := userRepo.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &domain.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("Seeded admin account",
		zap.Int64("user_id", admin.ID),
		zap.String("username", admin.Username),
	)
	return nil
}

func seedCategories(ctx context.Context, categoryRepo repository.CategoryRepository, logger *zap.Logger) error {
	created := 0
	for _, base := range baseCategories {
		_, err := categoryRepo.FindBySlug(ctx, base.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrCategoryNotFound) {
			return fmt.Errorf("failed to check for category %q: %w", base.Slug, err)
		}

		category := base
		if err := categoryRepo.Create(ctx, &category); err != nil {
			if errors.Is(err, repository.ErrCategoryAlreadyExists) {
				continue
			}
			return fmt.Errorf("failed to seed category %q: %w", base.Slug, err)
		}
		created++
	}

	if created > 0 {
		logger.Info("Seeded base categories", zap.Int("created", created))
	}
	return nil
}
