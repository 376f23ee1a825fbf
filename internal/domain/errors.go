package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
// Los tipos estructurados envuelven a estos sentinelas: usar errors.Is para clasificar
// y errors.As para leer el detalle.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrContention        = errors.New("recurso bloqueado por otra operación")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// ValidationError entrada mal formada, faltante u operación autorreferencial.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid atajo para construir un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError charge, artículo o movimiento desconocido.
type NotFoundError struct {
	Resource string // "charge", "article", "movement"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound atajo para construir un NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError la precondición available >= quantity no se cumple.
type InsufficientStockError struct {
	ChargeID    string
	StorageArea string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en charge %s (%s): solicitado %s kg, disponible %s kg",
		e.ChargeID, e.StorageArea, e.Requested.StringFixed(3), e.Available.StringFixed(3))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConflictError borrado de un charge con stock o con reservas abiertas.
type ConflictError struct {
	ChargeID         string
	Reason           string
	Available        decimal.Decimal
	OpenReservations int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicto en charge %s: %s", e.ChargeID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ContentionError no se obtuvo el bloqueo de las claves dentro del tiempo máximo de espera.
// El llamador puede reintentar.
type ContentionError struct {
	Keys []string
	Wait time.Duration
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("contención: bloqueo de [%s] no obtenido en %s", strings.Join(e.Keys, ", "), e.Wait)
}

func (e *ContentionError) Unwrap() error { return ErrContention }

// IsRetryable indica si el error puede resolverse reintentando la misma operación.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContention)
}

// IsClientError indica si el error se debe a la entrada o al estado observado por el cliente.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict)
}
