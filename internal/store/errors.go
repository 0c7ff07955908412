package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks transient persistence failures. Callers degrade
	// rather than retry inline.
	ErrUnavailable = errors.New("statement store unavailable")
	// ErrConstraint marks a write the schema rejected (foreign key, check,
	// not-null). Retrying cannot help; the record itself is wrong.
	ErrConstraint = errors.New("constraint violation")
)

// wrapWriteErr classifies a failed write: SQLSTATE class 23 (integrity
// constraint violations) wraps ErrConstraint, everything else is treated as
// the store being unreachable.
func wrapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w (%w)", op, ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w (%w)", op, ErrUnavailable, err)
}
