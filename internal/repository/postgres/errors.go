package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyViolation = "23503"
	pgInvalidTextRep      = "22P02"
)

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation.
// Writing content for a project that does not exist lands here.
func IsPgForeignKeyError(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}

// IsPgInvalidInputError checks for malformed literals, e.g. a non-UUID id
func IsPgInvalidInputError(err error) bool {
	return hasPgCode(err, pgInvalidTextRep)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
