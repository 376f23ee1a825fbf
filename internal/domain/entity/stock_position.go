package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Códigos de advertencia de la contabilidad de cantidades. No bloquean operaciones.
const (
	WarningStorageAreaMismatch  = "STORAGE_AREA_MISMATCH"
	WarningReservationOverdraft = "RESERVATION_OVERDRAFT"
)

// PositionKey identifica un par (charge, zona); orden global de bloqueos.
type PositionKey struct {
	ChargeID    string
	StorageArea StorageArea
}

// String forma "charge/zona".
func (k PositionKey) String() string {
	return k.ChargeID + "/" + string(k.StorageArea)
}

// Less orden total: chargeID ascendente y luego zona.
func (k PositionKey) Less(o PositionKey) bool {
	if k.ChargeID != o.ChargeID {
		return k.ChargeID < o.ChargeID
	}
	return k.StorageArea < o.StorageArea
}

// PositionBalance suma de movimientos de un (artículo, charge, zona).
type PositionBalance struct {
	ArticleID   string
	ChargeID    string
	StorageArea StorageArea
	Available   decimal.Decimal
}

// Warning advertencia asociada a una posición.
type Warning struct {
	Code    string
	Message string
}

// StockPosition posición derivada (no persistida) por (artículo, charge, zona).
type StockPosition struct {
	ArticleID    string
	ChargeID     string
	StorageArea  StorageArea
	Available    decimal.Decimal
	Reserved     decimal.Decimal
	InTransit    decimal.Decimal
	Free         decimal.Decimal // Available - Reserved - InTransit
	BestByDate   time.Time
	DaysToExpiry int
	Critical     bool
	Warnings     []Warning
}

// Key clave (charge, zona) de la posición.
func (p *StockPosition) Key() PositionKey {
	return PositionKey{ChargeID: p.ChargeID, StorageArea: p.StorageArea}
}

// OverviewFilter filtros de la vista de stock. AsOfDate nil significa lectura en vivo;
// a las 00:00 del calendario del ledger equivale a la fecha completa, con hora es un instante.
type OverviewFilter struct {
	ArticleID     string
	ChargeID      string
	StorageArea   StorageArea
	OnlyCritical  bool
	ThresholdDays *int
	AsOfDate      *time.Time
}
