package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de asiento del libro de movimientos.
type MovementKind string

const (
	MovementKindReceipt   MovementKind = "RECEIPT"   // entrada manual (Wareneingang)
	MovementKindRebooking MovementKind = "REBOOKING" // Umbuchen
	MovementKindWaste     MovementKind = "WASTE"     // baja por merma
	MovementKindMerge     MovementKind = "MERGE"     // Zusammenführen
)

// Valid indica si el tipo es conocido.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindReceipt, MovementKindRebooking, MovementKindWaste, MovementKindMerge:
		return true
	}
	return false
}

// WasteReason motivo de una baja por merma.
type WasteReason string

const (
	WasteReasonExpiredBestBy     WasteReason = "EXPIRED_BEST_BY"
	WasteReasonDamaged           WasteReason = "DAMAGED"
	WasteReasonSpoilage          WasteReason = "SPOILAGE"
	WasteReasonCustomerRejection WasteReason = "CUSTOMER_REJECTION"
	WasteReasonOther             WasteReason = "OTHER"
)

// Valid indica si el motivo pertenece al enum cerrado.
func (r WasteReason) Valid() bool {
	switch r {
	case WasteReasonExpiredBestBy, WasteReasonDamaged, WasteReasonSpoilage,
		WasteReasonCustomerRejection, WasteReasonOther:
		return true
	}
	return false
}

// Movement asiento inmutable: cambio firmado de cantidad (kg) en un par (charge, zona).
// Nunca se actualiza ni se borra; las correcciones son movimientos compensatorios.
type Movement struct {
	ID                string
	OperationID       string // agrupa las filas de una misma operación
	ChargeID          string
	ArticleID         string
	StorageArea       StorageArea
	Kind              MovementKind
	QuantityDelta     decimal.Decimal // positivo entrada, negativo salida
	ReasonCode        WasteReason     // solo WASTE
	Note              string
	Timestamp         time.Time
	RelatedMovementID string // la otra pata en REBOOKING/MERGE
	CreatedBy         string
}

// MovementFilter filtros del historial. From/To son cotas de tiempo; To es exclusiva.
type MovementFilter struct {
	From        *time.Time
	To          *time.Time
	ArticleID   string
	ChargeID    string
	StorageArea StorageArea
	Kind        MovementKind
	Search      string
}
