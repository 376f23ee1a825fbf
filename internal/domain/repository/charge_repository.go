package repository

import (
	"context"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// ChargeRepository define el puerto de persistencia para Charge (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el charge no existe.
type ChargeRepository interface {
	Create(ctx context.Context, charge *entity.Charge) error
	GetByID(ctx context.Context, id string) (*entity.Charge, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Charge, error)
	Update(ctx context.Context, charge *entity.Charge) error
	// List devuelve la página pedida y el total; limit <= 0 devuelve todo.
	List(ctx context.Context, filter entity.ChargeFilter, limit, offset int) ([]*entity.Charge, int, error)
}
