package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const userColumns = `id, email, password_hash, name, role, email_verified, push_token, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.EmailVerified,
		&u.PushToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = observe(r.prom, "users.get_by_email", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return e
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (u user.User, err error) {
	err = observe(r.prom, "users.get_by_id", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return e
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

// ResolveIdentity loads the role and any linked provider/consumer profile in one round trip.
func (r *UsersRepo) ResolveIdentity(ctx context.Context, userID string) (user.Identity, error) {
	var id user.Identity

	err := observe(r.prom, "users.resolve_identity", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.role, p.id, c.id
		FROM users u
		LEFT JOIN providers p ON p.user_id = u.id
		LEFT JOIN consumers c ON c.user_id = u.id
		WHERE u.id = $1
		LIMIT 1
	`, userID).Scan(&id.UserID, &id.Email, &id.Role, &id.ProviderID, &id.ConsumerID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Identity{}, user.ErrNotFound
		}
		return user.Identity{}, err
	}

	return id, nil
}

// CreateProviderAccount inserts the user and its provider profile in one transaction.
// The account starts unverified and holds the given verification token.
func (r *UsersRepo) CreateProviderAccount(ctx context.Context, u user.User, businessName string, v user.Verification) (created user.User, p provider.Provider, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.Role = user.RoleProvider
	u.EmailVerified = false
	u.CreatedAt, u.UpdatedAt = now, now

	err = observe(r.prom, "users.create_provider_account.user", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, email_verified,
			verification_token, verification_token_expires, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,FALSE,$6,$7,$8,$9)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, v.Token, v.ExpiresAt, u.CreatedAt, u.UpdatedAt)
		return e
	})
	if err != nil {
		if IsUniqueViolation(err) {
			err = user.ErrEmailAlreadyUsed
		}
		return
	}

	p = provider.Provider{
		ID:                 uuid.NewString(),
		UserID:             u.ID,
		BusinessName:       businessName,
		SubscriptionStatus: provider.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = observe(r.prom, "users.create_provider_account.provider", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO providers (id, user_id, business_name, subscription_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.UserID, p.BusinessName, p.SubscriptionStatus, p.CreatedAt, p.UpdatedAt)
		return e
	})
	if err != nil {
		return
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	created = u
	return
}

// ConsumeVerificationToken marks the owning account verified and clears the token in a
// single statement, so a token can succeed at most once. Unknown and expired tokens are
// reported the same way.
func (r *UsersRepo) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (u user.User, err error) {
	err = observe(r.prom, "users.consume_verification_token", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET email_verified = TRUE,
			verification_token = NULL,
			verification_token_expires = NULL,
			updated_at = NOW()
		WHERE verification_token = $1
		  AND verification_token_expires > $2
		RETURNING `+userColumns, token, now))
		return e
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, user.ErrInvalidVerificationToken
	}
	return u, err
}

func (r *UsersRepo) SetPushToken(ctx context.Context, userID, token string) error {
	return r.setPushToken(ctx, "users.set_push_token", userID, &token)
}

func (r *UsersRepo) ClearPushToken(ctx context.Context, userID string) error {
	return r.setPushToken(ctx, "users.clear_push_token", userID, nil)
}

func (r *UsersRepo) setPushToken(ctx context.Context, op, userID string, token *string) error {
	var tag pgconn.CommandTag

	err := observe(r.prom, op, func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `UPDATE users SET push_token = $2, updated_at = NOW() WHERE id = $1`, userID, token)
		return e
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
