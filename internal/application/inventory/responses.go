package inventory

import (
	"github.com/jhoicas/charge-ledger/internal/application/dto"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
)

// ToChargeResponse convierte un charge a su DTO.
func ToChargeResponse(c *entity.Charge) *dto.ChargeResponse {
	if c == nil {
		return nil
	}
	out := &dto.ChargeResponse{
		ID:           c.ID,
		ArticleID:    c.ArticleID,
		BestByDate:   c.BestByDate.Format(entity.DateLayout),
		IsFrozenArea: c.IsFrozenArea,
		StorageArea:  string(c.DeclaredArea()),
		SupplierID:   c.SupplierID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		DeletedAt:    c.DeletedAt,
	}
	if c.SlaughterDate != nil {
		s := c.SlaughterDate.Format(entity.DateLayout)
		out.SlaughterDate = &s
	}
	return out
}

// ToMovementResponse convierte un movimiento a su DTO.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID,
		OperationID:       m.OperationID,
		ChargeID:          m.ChargeID,
		ArticleID:         m.ArticleID,
		StorageArea:       string(m.StorageArea),
		Kind:              string(m.Kind),
		QuantityDelta:     m.QuantityDelta,
		ReasonCode:        string(m.ReasonCode),
		Note:              m.Note,
		Timestamp:         m.Timestamp,
		RelatedMovementID: m.RelatedMovementID,
		CreatedBy:         m.CreatedBy,
	}
}

// ToMovementResponses convierte una lista de movimientos.
func ToMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToPositionResponse convierte una posición derivada a su DTO.
func ToPositionResponse(p entity.StockPosition) dto.StockPositionResponse {
	out := dto.StockPositionResponse{
		ArticleID:    p.ArticleID,
		ChargeID:     p.ChargeID,
		StorageArea:  string(p.StorageArea),
		Available:    p.Available.Round(inventory.QuantityScale),
		Reserved:     p.Reserved.Round(inventory.QuantityScale),
		InTransit:    p.InTransit.Round(inventory.QuantityScale),
		Free:         p.Free.Round(inventory.QuantityScale),
		BestByDate:   p.BestByDate.Format(entity.DateLayout),
		DaysToExpiry: p.DaysToExpiry,
		Critical:     p.Critical,
	}
	for _, w := range p.Warnings {
		out.Warnings = append(out.Warnings, dto.WarningDTO{Code: w.Code, Message: w.Message})
	}
	return out
}

// ToReservationResponse convierte una reserva a su DTO.
func ToReservationResponse(r *entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:           r.ID,
		ChargeID:     r.ChargeID,
		StorageArea:  string(r.StorageArea),
		OrderID:      r.OrderID,
		CustomerID:   r.CustomerID,
		DeliveryDate: r.DeliveryDate.Format(entity.DateLayout),
		Quantity:     r.Quantity.StringFixed(inventory.QuantityScale),
		Status:       string(r.Status),
	}
}
