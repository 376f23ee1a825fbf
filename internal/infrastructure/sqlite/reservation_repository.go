package sqlite

import (
	"context"
	"fmt"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

const reservationSelect = `SELECT id, charge_id, storage_area, order_id, customer_id, delivery_date, quantity_grams, status
	FROM reservations`

// ReservationRepo reservas sobre SQLite.
type ReservationRepo struct{ repo }

func (r *ReservationRepo) ListActive(ctx context.Context, chargeID string) ([]*entity.Reservation, error) {
	defer r.rlock()()
	query := reservationSelect + ` WHERE status IN ('OPEN', 'IN_TRANSIT')`
	var args []any
	if chargeID != "" {
		query += ` AND charge_id = ?`
		args = append(args, chargeID)
	}
	return r.list(ctx, query+` ORDER BY delivery_date, id`, args...)
}

func (r *ReservationRepo) ListByCharge(ctx context.Context, chargeID string) ([]*entity.Reservation, error) {
	defer r.rlock()()
	return r.list(ctx, reservationSelect+` WHERE charge_id = ? ORDER BY delivery_date, id`, chargeID)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var out []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		var area, status, delivery string
		var grams int64
		if err := rows.Scan(&res.ID, &res.ChargeID, &area, &res.OrderID, &res.CustomerID, &delivery, &grams, &status); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		d, err := parseDate(delivery)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.DeliveryDate = d
		res.StorageArea = entity.StorageArea(area)
		res.Status = entity.ReservationStatus(status)
		res.Quantity = fromGrams(grams)
		out = append(out, &res)
	}
	return out, rows.Err()
}

// PutReservation inserta o reemplaza una reserva (lo hace el servicio de pedidos; aquí para demo y tests).
func (s *Store) PutReservation(ctx context.Context, res entity.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, charge_id, storage_area, order_id, customer_id, delivery_date, quantity_grams, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET storage_area = excluded.storage_area, quantity_grams = excluded.quantity_grams,
			delivery_date = excluded.delivery_date, status = excluded.status`,
		res.ID, res.ChargeID, string(res.StorageArea), res.OrderID, res.CustomerID, formatDate(res.DeliveryDate),
		toGrams(res.Quantity), string(res.Status))
	if err != nil {
		return fmt.Errorf("put reservation: %w", err)
	}
	return nil
}
