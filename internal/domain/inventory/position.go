package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// IsCritical regla de criticidad por MHD: bestBy - today <= thresholdDays (inclusive).
// Una posición sin stock nunca es crítica.
func IsCritical(bestBy, today time.Time, thresholdDays int, available decimal.Decimal) bool {
	if !available.IsPositive() {
		return false
	}
	return entity.DaysBetween(today, bestBy) <= thresholdDays
}

// PositionInput datos de una posición antes de derivar cantidades y advertencias.
type PositionInput struct {
	Charge       *entity.Charge
	StorageArea  entity.StorageArea
	Available    decimal.Decimal
	Reservations []*entity.Reservation
}

// BuildPosition deriva una StockPosition: reservado/en tránsito, libre, criticidad y advertencias.
func BuildPosition(in PositionInput, today time.Time, thresholdDays int) entity.StockPosition {
	p := entity.StockPosition{
		ArticleID:   in.Charge.ArticleID,
		ChargeID:    in.Charge.ID,
		StorageArea: in.StorageArea,
		Available:   in.Available,
		Reserved:    decimal.Zero,
		InTransit:   decimal.Zero,
		BestByDate:  in.Charge.BestByDate,
	}
	for _, r := range in.Reservations {
		switch r.Status {
		case entity.ReservationOpen:
			p.Reserved = p.Reserved.Add(r.Quantity)
		case entity.ReservationInTransit:
			p.InTransit = p.InTransit.Add(r.Quantity)
		}
	}
	p.Free = p.Available.Sub(p.Reserved).Sub(p.InTransit)
	p.DaysToExpiry = entity.DaysBetween(today, in.Charge.BestByDate)
	p.Critical = IsCritical(in.Charge.BestByDate, today, thresholdDays, p.Available)

	if declared := in.Charge.DeclaredArea(); declared != in.StorageArea {
		p.Warnings = append(p.Warnings, entity.Warning{
			Code:    entity.WarningStorageAreaMismatch,
			Message: fmt.Sprintf("charge declarado en %s pero con stock/reservas en %s", declared, in.StorageArea),
		})
	}
	if claimed := p.Reserved.Add(p.InTransit); claimed.GreaterThan(p.Available) {
		p.Warnings = append(p.Warnings, entity.Warning{
			Code: entity.WarningReservationOverdraft,
			Message: fmt.Sprintf("reservado %s kg supera el disponible %s kg",
				claimed.StringFixed(QuantityScale), p.Available.StringFixed(QuantityScale)),
		})
	}
	return p
}

// SortPositions orden de la vista: MHD asc, artículo, charge, zona.
func SortPositions(positions []entity.StockPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if !a.BestByDate.Equal(b.BestByDate) {
			return a.BestByDate.Before(b.BestByDate)
		}
		if a.ArticleID != b.ArticleID {
			return a.ArticleID < b.ArticleID
		}
		return a.Key().Less(b.Key())
	})
}
