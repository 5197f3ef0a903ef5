package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories map to domain errors
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsCheckViolation reports whether err is a check constraint violation
func IsCheckViolation(err error) bool {
	return hasCode(err, checkViolation)
}

// ConstraintName returns the violated constraint, if err carries one
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
