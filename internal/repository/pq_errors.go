package repository

import (
	"errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key failure.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

// IsCheckViolation reports whether err is a Postgres check constraint failure.
func IsCheckViolation(err error) bool {
	return hasPQCode(err, pqCheckViolation)
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
