package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/session"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RefreshTokensRepo persists hashed refresh tokens. Rotation runs in one
// transaction with the presented row locked.
type RefreshTokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, prom: prom}
}

func (r *RefreshTokensRepo) Issue(ctx context.Context, row session.RefreshToken) error {
	return r.create(ctx, r.pool, row)
}

// Rotate swaps the presented token for next. Presenting an already revoked token
// is treated as reuse: every live session of that user is revoked and ErrRevoked returned.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, id, presentedHash string, next session.RefreshToken) (old session.RefreshToken, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	old, err = r.getForUpdate(ctx, tx, id)
	if err != nil {
		return
	}

	if err = old.Check(presentedHash, time.Now().UTC()); err != nil {
		if errors.Is(err, session.ErrRevoked) {
			if revokeErr := r.revokeAllForUser(ctx, tx, old.UserID); revokeErr == nil {
				_ = tx.Commit(ctx)
			}
		}
		return
	}

	next.UserID = old.UserID

	if err = r.revoke(ctx, tx, old.ID, &next.ID); err != nil {
		return
	}

	if err = r.create(ctx, tx, next); err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// RevokeByID ends one session. Unknown ids are not an error.
func (r *RefreshTokensRepo) RevokeByID(ctx context.Context, id string) error {
	return r.revoke(ctx, r.pool, id, nil)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *RefreshTokensRepo) create(ctx context.Context, db execer, row session.RefreshToken) error {
	return observe(r.prom, "refresh_tokens.create", func() error {
		_, err := db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt)
		return err
	})
}

func (r *RefreshTokensRepo) getForUpdate(ctx context.Context, tx pgx.Tx, id string) (session.RefreshToken, error) {
	var row session.RefreshToken

	err := observe(r.prom, "refresh_tokens.get_for_update", func() error {
		return tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
			&row.ID,
			&row.UserID,
			&row.TokenHash,
			&row.ExpiresAt,
			&row.RevokedAt,
			&row.ReplacedBy,
			&row.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.RefreshToken{}, session.ErrNotFound
		}
		return session.RefreshToken{}, err
	}

	return row, nil
}

func (r *RefreshTokensRepo) revoke(ctx context.Context, db execer, id string, replacedBy *string) error {
	return observe(r.prom, "refresh_tokens.revoke", func() error {
		_, err := db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, id, replacedBy)
		return err
	})
}

func (r *RefreshTokensRepo) revokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error {
	return observe(r.prom, "refresh_tokens.revoke_all_for_user", func() error {
		_, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
		return err
	})
}
