package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/schedulehub/internal/domain/enrollment"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EnrollmentRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEnrollmentRepo(pool *pgxpool.Pool, prom *observability.Prom) *EnrollmentRepo {
	return &EnrollmentRepo{pool: pool, prom: prom}
}

const enrollmentColumns = `id, provider_id, user_id, name, email, phone, service_type, message, status, provider_notes, created_at, updated_at`

func scanEnrollment(row pgx.Row) (enrollment.Request, error) {
	var e enrollment.Request
	err := row.Scan(&e.ID, &e.ProviderID, &e.UserID, &e.Name, &e.Email, &e.Phone, &e.ServiceType, &e.Message, &e.Status, &e.ProviderNotes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EnrollmentRepo) Create(ctx context.Context, req enrollment.CreateRequest) (enrollment.Request, error) {
	e := enrollment.NewFromCreateRequest(req)

	err := observe(r.prom, "enrollment.create", func() error {
		_, execErr := r.pool.Exec(ctx, `
		INSERT INTO enrollment_requests (`+enrollmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, e.ID, e.ProviderID, e.UserID, e.Name, e.Email, e.Phone, e.ServiceType, e.Message, e.Status, e.ProviderNotes, e.CreatedAt, e.UpdatedAt)
		return execErr
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return enrollment.Request{}, provider.ErrNotFound
		}
		return enrollment.Request{}, err
	}

	return e, nil
}

// ListForProvider returns the provider's requests newest first, optionally narrowed by status.
func (r *EnrollmentRepo) ListForProvider(ctx context.Context, providerID string, status *enrollment.Status) ([]enrollment.Request, error) {
	q := `SELECT ` + enrollmentColumns + ` FROM enrollment_requests WHERE provider_id = $1`
	args := []any{providerID}

	if status != nil {
		q += ` AND status = $2`
		args = append(args, *status)
	}

	q += ` ORDER BY created_at DESC, id DESC`

	var rows pgx.Rows
	err := observe(r.prom, "enrollment.list_for_provider", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]enrollment.Request, 0)

	for rows.Next() {
		e, scanErr := scanEnrollment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// UpdateForProvider changes a request only when it belongs to providerID; anything else is ErrNotFound.
func (r *EnrollmentRepo) UpdateForProvider(ctx context.Context, providerID, id string, req enrollment.UpdateRequest) (e enrollment.Request, err error) {
	err = observe(r.prom, "enrollment.update_for_provider", func() error {
		var scanErr error
		e, scanErr = scanEnrollment(r.pool.QueryRow(ctx, `
		UPDATE enrollment_requests
		SET status = COALESCE($3, status),
			provider_notes = COALESCE($4, provider_notes),
			updated_at = NOW()
		WHERE id = $1 AND provider_id = $2
		RETURNING `+enrollmentColumns, id, providerID, req.Status, req.ProviderNotes))
		return scanErr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return enrollment.Request{}, enrollment.ErrNotFound
	}
	return e, err
}
