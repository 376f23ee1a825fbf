package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus estado de una reserva creada por el proceso de pedidos (externo).
type ReservationStatus string

const (
	ReservationOpen      ReservationStatus = "OPEN"       // cuenta como reservado
	ReservationInTransit ReservationStatus = "IN_TRANSIT" // cargado, pendiente de salida
	ReservationClosed    ReservationStatus = "CLOSED"     // entregado o cancelado
)

// Reservation reclamo de un pedido sobre el stock de un (charge, zona). Solo lectura para el ledger.
type Reservation struct {
	ID           string
	ChargeID     string
	StorageArea  StorageArea
	OrderID      string
	CustomerID   string
	DeliveryDate time.Time
	Quantity     decimal.Decimal
	Status       ReservationStatus
}

// Active indica si la reserva sigue comprometiendo stock.
func (r *Reservation) Active() bool {
	return r.Status == ReservationOpen || r.Status == ReservationInTransit
}
