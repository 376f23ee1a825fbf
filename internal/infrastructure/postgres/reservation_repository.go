package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo lectura de la tabla reservations (la escribe el servicio de pedidos).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationSelect = `SELECT id, charge_id, storage_area, order_id, customer_id, delivery_date, quantity, status
	FROM reservations`

func (r *ReservationRepo) ListActive(ctx context.Context, chargeID string) ([]*entity.Reservation, error) {
	query := reservationSelect + ` WHERE status IN ('OPEN', 'IN_TRANSIT')`
	var args []any
	if chargeID != "" {
		query += ` AND charge_id = $1`
		args = append(args, chargeID)
	}
	return r.list(ctx, query+` ORDER BY delivery_date, id`, args...)
}

func (r *ReservationRepo) ListByCharge(ctx context.Context, chargeID string) ([]*entity.Reservation, error) {
	return r.list(ctx, reservationSelect+` WHERE charge_id = $1 ORDER BY delivery_date, id`, chargeID)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var out []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		var area, status string
		if err := rows.Scan(&res.ID, &res.ChargeID, &area, &res.OrderID, &res.CustomerID,
			&res.DeliveryDate, &res.Quantity, &status); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.StorageArea = entity.StorageArea(area)
		res.Status = entity.ReservationStatus(status)
		out = append(out, &res)
	}
	return out, rows.Err()
}
