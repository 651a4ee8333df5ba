package postgres

import (
	"context"

	"github.com/geocoder89/schedulehub/internal/domain/settings"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSettingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SettingsRepo {
	return &SettingsRepo{pool: pool, prom: prom}
}

const settingsColumns = `id, payments_enabled, monthly_price_cents, currency, free_consumer_limit, updated_at`

func scanSettings(row pgx.Row) (settings.AppSettings, error) {
	var s settings.AppSettings
	err := row.Scan(&s.ID, &s.PaymentsEnabled, &s.MonthlyPriceCents, &s.Currency, &s.FreeConsumerLimit, &s.UpdatedAt)
	return s, err
}

// Get returns the singleton row, creating it with column defaults on first access.
// Concurrent first reads converge on the same row through the primary key conflict.
func (r *SettingsRepo) Get(ctx context.Context) (s settings.AppSettings, err error) {
	err = observe(r.prom, "settings.get", func() error {
		var e error
		s, e = scanSettings(r.pool.QueryRow(ctx, `
		INSERT INTO app_settings (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING `+settingsColumns, settings.SingletonID))
		return e
	})
	return s, err
}

// Update changes the non-nil fields of req on the singleton row in one statement.
func (r *SettingsRepo) Update(ctx context.Context, req settings.UpdateRequest) (s settings.AppSettings, err error) {
	if _, err = r.Get(ctx); err != nil {
		return settings.AppSettings{}, err
	}

	err = observe(r.prom, "settings.update", func() error {
		var e error
		s, e = scanSettings(r.pool.QueryRow(ctx, `
		UPDATE app_settings
		SET payments_enabled = COALESCE($2, payments_enabled),
			monthly_price_cents = COALESCE($3, monthly_price_cents),
			currency = COALESCE($4, currency),
			free_consumer_limit = COALESCE($5, free_consumer_limit),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+settingsColumns, settings.SingletonID, req.PaymentsEnabled, req.MonthlyPriceCents, req.Currency, req.FreeConsumerLimit))
		return e
	})
	return s, err
}
