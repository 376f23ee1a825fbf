package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas en memoria (solo lectura para el ledger).
type ReservationRepo struct {
	s    *Store
	inTx bool
}

func (r *ReservationRepo) ListActive(_ context.Context, chargeID string) ([]*entity.Reservation, error) {
	defer r.s.rlock(r.inTx)()
	return r.collect(func(res *entity.Reservation) bool {
		return res.Active() && (chargeID == "" || res.ChargeID == chargeID)
	}), nil
}

func (r *ReservationRepo) ListByCharge(_ context.Context, chargeID string) ([]*entity.Reservation, error) {
	defer r.s.rlock(r.inTx)()
	return r.collect(func(res *entity.Reservation) bool { return res.ChargeID == chargeID }), nil
}

func (r *ReservationRepo) collect(keep func(*entity.Reservation) bool) []*entity.Reservation {
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if keep(res) {
			cp := *res
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DeliveryDate.Equal(out[j].DeliveryDate) {
			return out[i].DeliveryDate.Before(out[j].DeliveryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
