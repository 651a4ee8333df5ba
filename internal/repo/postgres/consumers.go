package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConsumersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewConsumersRepo(pool *pgxpool.Pool, prom *observability.Prom) *ConsumersRepo {
	return &ConsumersRepo{pool: pool, prom: prom}
}

func (r *ConsumersRepo) CountForProvider(ctx context.Context, providerID string) (int, error) {
	var total int
	err := observe(r.prom, "consumers.count_for_provider", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consumers WHERE provider_id = $1`, providerID).Scan(&total)
	})
	return total, err
}

// Create inserts a consumer. With maxConsumers set, the provider row is locked
// for the transaction so concurrent creates for one provider count in turn.
func (r *ConsumersRepo) Create(ctx context.Context, req consumer.CreateRequest, maxConsumers *int) (created consumer.Consumer, err error) {
	c := consumer.NewFromCreateRequest(req)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = observe(r.prom, "consumers.create.lock_provider", func() error {
		var id string
		return tx.QueryRow(ctx, `SELECT id FROM providers WHERE id = $1 FOR UPDATE`, c.ProviderID).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = provider.ErrNotFound
		}
		return
	}

	if maxConsumers != nil {
		var total int
		err = observe(r.prom, "consumers.create.count", func() error {
			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM consumers WHERE provider_id = $1`, c.ProviderID).Scan(&total)
		})
		if err != nil {
			return
		}
		if total >= *maxConsumers {
			err = consumer.ErrLimitReached
			return
		}
	}

	err = observe(r.prom, "consumers.create", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO consumers (id, provider_id, name, email, service_type, booking_duration, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.ProviderID, c.Name, c.Email, c.ServiceType, c.BookingDuration, c.CreatedAt)
		return e
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			err = provider.ErrNotFound
		}
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	return c, nil
}

func (r *ConsumersRepo) ListForProvider(ctx context.Context, providerID string, limit int, after *utils.Cursor) ([]consumer.Consumer, *string, error) {
	limit = clampLimit(limit)

	q := `
		SELECT id, provider_id, user_id, name, email, service_type, booking_duration, created_at
		FROM consumers
		WHERE provider_id = $1
	`
	args := []any{providerID}

	if after != nil {
		q += ` AND (created_at, id) < ($2, $3)`
		args = append(args, after.CreatedAt, after.ID)
	}

	q += ` ORDER BY created_at DESC, id DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit+1)

	var rows pgx.Rows
	err := observe(r.prom, "consumers.list_for_provider", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]consumer.Consumer, 0, limit)

	for rows.Next() {
		var c consumer.Consumer
		if scanErr := rows.Scan(&c.ID, &c.ProviderID, &c.UserID, &c.Name, &c.Email, &c.ServiceType, &c.BookingDuration, &c.CreatedAt); scanErr != nil {
			return nil, nil, scanErr
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return utils.Page(out, limit, func(c consumer.Consumer) (time.Time, string) { return c.CreatedAt, c.ID })
}

// ListForAdmin pages through consumers across every tenant, newest first.
func (r *ConsumersRepo) ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]consumer.AdminView, *string, error) {
	limit = clampLimit(limit)

	q := `
		SELECT c.id, c.name, c.email, c.service_type, c.booking_duration, c.provider_id, p.business_name, c.created_at
		FROM consumers c
		JOIN providers p ON p.id = c.provider_id
	`
	args := []any{}

	if after != nil {
		q += ` WHERE (c.created_at, c.id) < ($1, $2)`
		args = append(args, after.CreatedAt, after.ID)
	}

	q += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit+1)

	var rows pgx.Rows
	err := observe(r.prom, "consumers.list_for_admin", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]consumer.AdminView, 0, limit)

	for rows.Next() {
		var v consumer.AdminView
		if scanErr := rows.Scan(&v.ID, &v.Name, &v.Email, &v.ServiceType, &v.BookingDuration, &v.ProviderID, &v.BusinessName, &v.CreatedAt); scanErr != nil {
			return nil, nil, scanErr
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return utils.Page(out, limit, func(v consumer.AdminView) (time.Time, string) { return v.CreatedAt, v.ID })
}
