package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFeedbackRepo(pool *pgxpool.Pool, prom *observability.Prom) *FeedbackRepo {
	return &FeedbackRepo{pool: pool, prom: prom}
}

func (r *FeedbackRepo) Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
	f := feedback.NewFromCreateRequest(req)

	err := observe(r.prom, "feedback.create", func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO feedback (id, user_id, category, message, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, f.ID, f.UserID, f.Category, f.Message, f.Status, f.CreatedAt, f.UpdatedAt)
		return e
	})
	if err != nil {
		return feedback.Feedback{}, err
	}

	return f, nil
}

const feedbackSelect = `
	SELECT f.id, f.user_id, u.email, f.category, f.message, f.status, f.admin_response, f.created_at, f.updated_at
	FROM feedback f
	JOIN users u ON u.id = f.user_id
`

func scanFeedback(row pgx.Row) (feedback.Feedback, error) {
	var f feedback.Feedback
	err := row.Scan(&f.ID, &f.UserID, &f.UserEmail, &f.Category, &f.Message, &f.Status, &f.AdminResponse, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *FeedbackRepo) GetByID(ctx context.Context, id string) (f feedback.Feedback, err error) {
	err = observe(r.prom, "feedback.get_by_id", func() error {
		var e error
		f, e = scanFeedback(r.pool.QueryRow(ctx, feedbackSelect+` WHERE f.id = $1`, id))
		return e
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	return f, err
}

// List returns feedback newest first, optionally filtered by category and status.
func (r *FeedbackRepo) List(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error) {
	limit := clampLimit(filter.Limit)

	q := feedbackSelect + ` WHERE 1=1`
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		q += ` AND f.category = ` + placeholder(len(args))
	}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		q += ` AND f.status = ` + placeholder(len(args))
	}

	if after != nil {
		args = append(args, after.CreatedAt, after.ID)
		q += ` AND (f.created_at, f.id) < (` + placeholder(len(args)-1) + `, ` + placeholder(len(args)) + `)`
	}

	args = append(args, limit+1)
	q += ` ORDER BY f.created_at DESC, f.id DESC LIMIT ` + placeholder(len(args))

	var rows pgx.Rows
	err := observe(r.prom, "feedback.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]feedback.Feedback, 0, limit)

	for rows.Next() {
		f, scanErr := scanFeedback(rows)
		if scanErr != nil {
			return nil, nil, scanErr
		}
		out = append(out, f)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return utils.Page(out, limit, func(f feedback.Feedback) (time.Time, string) { return f.CreatedAt, f.ID })
}

// Update applies a validated moderation change. Nil fields keep their stored values.
func (r *FeedbackRepo) Update(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error) {
	if err := req.Validate(); err != nil {
		return feedback.Feedback{}, err
	}

	var updatedID string

	err := observe(r.prom, "feedback.update", func() error {
		return r.pool.QueryRow(ctx, `
		UPDATE feedback
		SET status = COALESCE($2, status),
			admin_response = COALESCE($3, admin_response),
			updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`, id, req.Status, req.AdminResponse).Scan(&updatedID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return feedback.Feedback{}, feedback.ErrNotFound
		}
		return feedback.Feedback{}, err
	}

	return r.GetByID(ctx, updatedID)
}
