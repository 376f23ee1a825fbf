package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// FoldBalances suma los deltas por (artículo, charge, zona). Si before no es nil solo
// cuenta los movimientos con Timestamp < before. El resultado sale ordenado por clave.
func FoldBalances(movements []*entity.Movement, before *time.Time) []entity.PositionBalance {
	sums := make(map[entity.PositionKey]*entity.PositionBalance)
	for _, m := range movements {
		if before != nil && !m.Timestamp.Before(*before) {
			continue
		}
		k := entity.PositionKey{ChargeID: m.ChargeID, StorageArea: m.StorageArea}
		b, ok := sums[k]
		if !ok {
			b = &entity.PositionBalance{ArticleID: m.ArticleID, ChargeID: m.ChargeID, StorageArea: m.StorageArea, Available: decimal.Zero}
			sums[k] = b
		}
		b.Available = b.Available.Add(m.QuantityDelta)
	}
	out := make([]entity.PositionBalance, 0, len(sums))
	for _, b := range sums {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return entity.PositionKey{ChargeID: out[i].ChargeID, StorageArea: out[i].StorageArea}.
			Less(entity.PositionKey{ChargeID: out[j].ChargeID, StorageArea: out[j].StorageArea})
	})
	return out
}

// Balance suma los deltas de un solo (charge, zona).
func Balance(movements []*entity.Movement, key entity.PositionKey) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		if m.ChargeID == key.ChargeID && m.StorageArea == key.StorageArea {
			sum = sum.Add(m.QuantityDelta)
		}
	}
	return sum
}

// NetDelta suma de todos los deltas; cero en operaciones pareadas.
func NetDelta(movements []*entity.Movement) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.QuantityDelta)
	}
	return sum
}
