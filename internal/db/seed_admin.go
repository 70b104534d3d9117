package db

import (
	"context"
	"log/slog"

	"github.com/rjenterprise/poolhub/internal/config"
)

type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, username, email, password string) (bool, error)
}

// EnsureAdminAccount creates the configured admin on first start. It is a
// no-op when ADMIN_EMAIL or ADMIN_PASSWORD is unset.
func EnsureAdminAccount(ctx context.Context, seeder AdminSeeder, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	created, err := seeder.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		slog.Default().InfoContext(ctx, "admin_account_seeded", "email", cfg.AdminEmail)
	}
	return nil
}
