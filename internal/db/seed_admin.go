package db

import (
	"context"
	"strings"

	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the platform admin account on first boot when
// ADMIN_EMAIL and ADMIN_PASSWORD are configured. An existing account with that
// email is left untouched, including its role and password.
//
// The admin role only ever comes from here or from the database directly;
// signup always creates providers.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, email_verified)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, hash, cfg.AdminName, user.RoleAdmin)

	return err
}
