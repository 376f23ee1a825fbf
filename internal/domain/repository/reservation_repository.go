package repository

import (
	"context"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// ReservationRepository lectura de reservas; las escribe el proceso de pedidos externo.
type ReservationRepository interface {
	// ListActive reservas OPEN e IN_TRANSIT; chargeID vacío = todas.
	ListActive(ctx context.Context, chargeID string) ([]*entity.Reservation, error)
	ListByCharge(ctx context.Context, chargeID string) ([]*entity.Reservation, error)
}
