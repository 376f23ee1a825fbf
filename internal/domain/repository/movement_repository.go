package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// BalanceFilter selecciona las posiciones a sumar. Before es una cota exclusiva
// sobre el timestamp del movimiento (nil = todos).
type BalanceFilter struct {
	ArticleID   string
	ChargeID    string
	StorageArea entity.StorageArea
	Before      *time.Time
}

// MovementRepository puerto del libro de movimientos. Solo inserción: no existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// List ordena por timestamp desc, id desc y devuelve también el total sin paginar.
	List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.Movement, int, error)
	// Stream recorre todos los movimientos del filtro en el mismo orden que List.
	Stream(ctx context.Context, filter entity.MovementFilter, fn func(*entity.Movement) error) error
	// Balance suma los deltas de un (charge, zona).
	Balance(ctx context.Context, chargeID string, area entity.StorageArea) (decimal.Decimal, error)
	// Balances suma los deltas agrupando por (artículo, charge, zona).
	Balances(ctx context.Context, filter BalanceFilter) ([]entity.PositionBalance, error)
}
