package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrListingNotFound = errors.New("listing not found")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate key")
	// ErrMissingReference reports a foreign key violation.
	ErrMissingReference = errors.New("referenced row does not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps constraint violations onto repository sentinels and keeps the
// driver error wrapped for logging.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return &ConstraintError{Sentinel: ErrDuplicate, Constraint: pgErr.ConstraintName, Err: err}
	case pgForeignKeyViolation:
		return &ConstraintError{Sentinel: ErrMissingReference, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

type ConstraintError struct {
	Sentinel   error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return e.Sentinel.Error() + " (" + e.Constraint + ")"
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.Sentinel
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
