package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain"
)

// QuantityScale dígitos fraccionarios de las cantidades en kg (conversiones pieza/caja).
const QuantityScale = 3

// NormalizeQuantity redondea a QuantityScale decimales y exige una cantidad > 0.
func NormalizeQuantity(field string, q decimal.Decimal) (decimal.Decimal, error) {
	q = q.Round(QuantityScale)
	if !q.IsPositive() {
		return decimal.Zero, domain.Invalid(field, "debe ser mayor que 0")
	}
	return q, nil
}
