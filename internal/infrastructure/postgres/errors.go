package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/charge-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "23505")
}

// isLockNotAvailable lock_timeout agotado (55P03) o abortado por deadlock (40P01).
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03" || pgErr.Code == "40P01"
	}
	return false
}

// contention traduce un fallo de bloqueo de filas a *domain.ContentionError; otros errores pasan tal cual.
func contention(err error, wait time.Duration, keys ...string) error {
	if err != nil && isLockNotAvailable(err) {
		return &domain.ContentionError{Keys: keys, Wait: wait}
	}
	return err
}
