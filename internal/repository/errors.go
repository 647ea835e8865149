package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/yourorg/personnelapi/internal/apperror"
)

// Postgres error codes the repositories care about.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// notFound classifies a missing-row read.
func notFound(entity string) error {
	return apperror.New(apperror.NotFound, "%s not found", entity)
}

// classifyWrite maps driver errors on INSERT/UPDATE into the taxonomy:
// duplicate keys become Conflict, dangling references become BadRequest.
func classifyWrite(err error, entity string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperror.Wrap(apperror.Conflict, err, "%s already exists", entity)
		case pqForeignKeyViolation:
			return apperror.Wrap(apperror.BadRequest, err, "%s references a record that does not exist", entity)
		}
	}
	return apperror.Wrap(apperror.Internal, err, "failed to write %s", entity)
}

// classifyDelete maps driver errors on DELETE: a foreign key violation here
// means dependent records still reference the row.
func classifyDelete(err error, entity string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return apperror.Wrap(apperror.Conflict, err, "%s is still referenced by other records", entity)
	}
	return apperror.Wrap(apperror.Internal, err, "failed to delete %s", entity)
}

// classifyRead wraps unexpected read errors, keeping NotFound for absent
// rows.
func classifyRead(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity)
	}
	return apperror.Wrap(apperror.Internal, err, "failed to read %s", entity)
}
