package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation per the PostgreSQL error code table
const uniqueViolationCode = "23505"

// IsDuplicateConstraintError reports whether err is a PostgreSQL unique
// violation on the named constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraintName
}

// IsDuplicateError reports whether err is any PostgreSQL unique violation.
func IsDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// foreign_key_violation per the PostgreSQL error code table
const foreignKeyViolationCode = "23503"

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation, e.g. inserting a child row for a missing parent.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}
