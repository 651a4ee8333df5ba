package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProvidersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProvidersRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProvidersRepo {
	return &ProvidersRepo{pool: pool, prom: prom}
}

func (r *ProvidersRepo) GetBilling(ctx context.Context, providerID string) (provider.Billing, error) {
	b := provider.Billing{ProviderID: providerID}

	err := observe(r.prom, "providers.get_billing", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT stripe_customer_id, subscription_status, current_period_end
		FROM providers
		WHERE id = $1
	`, providerID).Scan(&b.StripeCustomerID, &b.SubscriptionStatus, &b.CurrentPeriodEnd)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return provider.Billing{}, provider.ErrNotFound
		}
		return provider.Billing{}, err
	}

	return b, nil
}

// ListForAdmin pages through providers owned by non-admin accounts, newest first.
func (r *ProvidersRepo) ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]provider.AdminView, *string, error) {
	limit = clampLimit(limit)

	q := `
		SELECT p.id, p.business_name, u.name, u.email, u.email_verified, p.subscription_status,
			(SELECT COUNT(*) FROM consumers c WHERE c.provider_id = p.id) AS consumer_count,
			p.created_at
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE u.role <> 'ADMIN'
	`
	args := []any{}

	if after != nil {
		q += ` AND (p.created_at, p.id) < ($1, $2)`
		args = append(args, after.CreatedAt, after.ID)
	}

	q += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit+1)

	var rows pgx.Rows
	err := observe(r.prom, "providers.list_for_admin", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]provider.AdminView, 0, limit)

	for rows.Next() {
		var v provider.AdminView
		if scanErr := rows.Scan(&v.ID, &v.BusinessName, &v.OwnerName, &v.OwnerEmail, &v.EmailVerified, &v.SubscriptionStatus, &v.ConsumerCount, &v.CreatedAt); scanErr != nil {
			return nil, nil, scanErr
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return utils.Page(out, limit, func(v provider.AdminView) (time.Time, string) { return v.CreatedAt, v.ID })
}
