package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errNotFound = errors.New("not found")

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, errNotFound)
}

// IsConflict reports whether err is a uniqueness or exclusion violation,
// e.g. two bookings claiming overlapping time.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23505 unique_violation, 23P01 exclusion_violation.
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}
