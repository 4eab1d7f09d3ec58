package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/fishstock-api/internal/domain"
)

const (
	sqlStateUniqueViolation   = "23505"
	sqlStateInvalidTextRepr   = "22P02" // p.ej. un id que no es UUID
	sqlStateCheckViolation    = "23514"
	sqlStateForeignKeyMissing = "23503"
	sqlStateLockNotAvailable  = "55P03" // lock_timeout agotado
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == sqlStateUniqueViolation
}

// isMalformedID el valor no se pudo convertir al tipo de la columna (UUID).
func isMalformedID(err error) bool {
	return sqlState(err) == sqlStateInvalidTextRepr
}

// wrapErr traduce los SQLSTATE que son errores del llamador a errores de dominio;
// el resto se envuelve con la operación.
func wrapErr(op string, err error) error {
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	switch sqlState(err) {
	case sqlStateInvalidTextRepr, sqlStateCheckViolation:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	case sqlStateForeignKeyMissing:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNotFound, err)
	case sqlStateLockNotAvailable:
		return fmt.Errorf("%s: %w: %w", op, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
