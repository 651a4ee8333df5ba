package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepo answers the admin dashboard counts. Each method is a single COUNT query.
type StatsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{pool: pool, prom: prom}
}

func (r *StatsRepo) count(ctx context.Context, op, q string, args ...any) (int, error) {
	var n int
	err := observe(r.prom, op, func() error {
		return r.pool.QueryRow(ctx, q, args...).Scan(&n)
	})
	return n, err
}

func (r *StatsRepo) CountProviders(ctx context.Context) (int, error) {
	return r.count(ctx, "stats.count_providers", `
		SELECT COUNT(*)
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE u.role <> 'ADMIN'
	`)
}

func (r *StatsRepo) CountConsumers(ctx context.Context) (int, error) {
	return r.count(ctx, "stats.count_consumers", `SELECT COUNT(*) FROM consumers`)
}

func (r *StatsRepo) CountBookingsFrom(ctx context.Context, now time.Time) (int, error) {
	return r.count(ctx, "stats.count_bookings_scheduled", `SELECT COUNT(*) FROM bookings WHERE start_time >= $1`, now)
}

func (r *StatsRepo) CountBookingsBefore(ctx context.Context, now time.Time) (int, error) {
	return r.count(ctx, "stats.count_bookings_past", `SELECT COUNT(*) FROM bookings WHERE start_time < $1`, now)
}

func (r *StatsRepo) CountExchanges(ctx context.Context) (int, error) {
	return r.count(ctx, "stats.count_exchanges", `SELECT COUNT(*) FROM exchanges`)
}

func (r *StatsRepo) CountOpenFeedback(ctx context.Context) (int, error) {
	return r.count(ctx, "stats.count_open_feedback", `SELECT COUNT(*) FROM feedback WHERE status = 'open'`)
}
