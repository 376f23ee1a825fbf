package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Charges      repository.ChargeRepository
	Movements    repository.MovementRepository
	Reservations repository.ReservationRepository
	Articles     repository.ArticleRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de transferencias: si fn devuelve error no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
	// RunReadOnly abre una transacción de solo lectura: todas las lecturas de fn ven la misma foto.
	RunReadOnly(ctx context.Context, fn func(repos TxRepos) error) error
}

// Locker serializa las escrituras por clave (charge, zona). Acquire ordena las claves
// globalmente y espera como máximo un tiempo acotado; si no lo consigue devuelve
// *domain.ContentionError. La función devuelta libera todas las claves.
type Locker interface {
	Acquire(ctx context.Context, keys ...entity.PositionKey) (release func(), err error)
}

// MovementReport datos del informe PDF del historial.
type MovementReport struct {
	Title       string
	GeneratedAt time.Time
	Filters     []string // resumen legible de los filtros aplicados
	Movements   []*entity.Movement
	Totals      map[entity.MovementKind]TotalLine
}

// TotalLine suma de deltas y número de filas por tipo de movimiento.
type TotalLine struct {
	Count int
	Sum   decimal.Decimal
}

// MovementReportGenerator genera el PDF del historial (implementado en infrastructure/pdf).
type MovementReportGenerator interface {
	GenerateMovementReport(ctx context.Context, report *MovementReport) ([]byte, error)
}

// Clock devuelve la hora actual; inyectable en tests.
type Clock func() time.Time
