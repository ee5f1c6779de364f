package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrPackageAlreadyAwarded is returned when the award guard finds the package already taken.
	ErrPackageAlreadyAwarded = errors.New("package already awarded")
	// ErrLineAlreadyContracted is returned when a unique line index rejects a contract line.
	ErrLineAlreadyContracted = errors.New("line already contracted")
	// ErrPackageAlreadySourced is returned when an active tender already exists for the package.
	ErrPackageAlreadySourced = errors.New("package already sourced")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
	pgUndefinedColumn     = "42703"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// isMissingSchema reports whether err means an optional table or column has not been migrated.
func isMissingSchema(err error) bool {
	switch pgCode(err) {
	case pgUndefinedTable, pgUndefinedColumn:
		return true
	}
	return false
}
