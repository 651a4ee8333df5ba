package postgres

import (
	"errors"
	"strconv"

	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

func observe(prom *observability.Prom, op string, fn func() error) error {
	if prom != nil {
		return prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// clampLimit keeps list page sizes within 1..100, defaulting to 20.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// placeholder renders a positional parameter like "$3".
func placeholder(pos int) string {
	return "$" + strconv.Itoa(pos)
}
