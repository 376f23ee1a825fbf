package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewChargeRequest charge a crear como destino.
type NewChargeRequest struct {
	BestByDate    string `json:"best_by_date"`
	IsFrozenArea  bool   `json:"is_frozen_area"`
	SlaughterDate string `json:"slaughter_date,omitempty"`
	SupplierID    string `json:"supplier_id,omitempty"`
}

// ReceiptRequest body para POST /api/inventory/receipts.
// Indicar charge_id (charge existente) o new_charge.
type ReceiptRequest struct {
	ArticleID   string            `json:"article_id"`
	Quantity    decimal.Decimal   `json:"quantity"`
	StorageArea string            `json:"storage_area"`
	ChargeID    string            `json:"charge_id,omitempty"`
	NewCharge   *NewChargeRequest `json:"new_charge,omitempty"`
	Note        string            `json:"note,omitempty"`
}

// WasteRequest body para POST /api/inventory/waste.
type WasteRequest struct {
	ChargeID    string          `json:"charge_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	StorageArea string          `json:"storage_area"`
	ReasonCode  string          `json:"reason_code"`
	Note        string          `json:"note,omitempty"`
}

// RebookDestinationRequest destino de una reubicación.
type RebookDestinationRequest struct {
	ChargeID    string            `json:"charge_id,omitempty"`
	NewCharge   *NewChargeRequest `json:"new_charge,omitempty"`
	StorageArea string            `json:"storage_area"`
}

// RebookRequest body para POST /api/inventory/rebookings.
type RebookRequest struct {
	SourceChargeID    string                   `json:"source_charge_id"`
	SourceStorageArea string                   `json:"source_storage_area,omitempty"`
	Quantity          decimal.Decimal          `json:"quantity"`
	Destination       RebookDestinationRequest `json:"destination"`
	Note              string                   `json:"note,omitempty"`
}

// MergeRequest body para POST /api/inventory/merges. quantity ausente = todo el disponible.
type MergeRequest struct {
	SourceChargeID    string           `json:"source_charge_id"`
	SourceStorageArea string           `json:"source_storage_area,omitempty"`
	TargetChargeID    string           `json:"target_charge_id"`
	TargetStorageArea string           `json:"target_storage_area"`
	Quantity          *decimal.Decimal `json:"quantity,omitempty"`
	Note              string           `json:"note,omitempty"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID                string          `json:"id"`
	OperationID       string          `json:"operation_id"`
	ChargeID          string          `json:"charge_id"`
	ArticleID         string          `json:"article_id"`
	StorageArea       string          `json:"storage_area"`
	Kind              string          `json:"kind"`
	QuantityDelta     decimal.Decimal `json:"quantity_delta"`
	ReasonCode        string          `json:"reason_code,omitempty"`
	Note              string          `json:"note,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	RelatedMovementID string          `json:"related_movement_id,omitempty"`
	CreatedBy         string          `json:"created_by,omitempty"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// WarningDTO advertencia de una posición (no bloquea operaciones).
type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockPositionResponse posición derivada por (artículo, charge, zona).
type StockPositionResponse struct {
	ArticleID    string          `json:"article_id"`
	ChargeID     string          `json:"charge_id"`
	StorageArea  string          `json:"storage_area"`
	Available    decimal.Decimal `json:"available"`
	Reserved     decimal.Decimal `json:"reserved"`
	InTransit    decimal.Decimal `json:"in_transit"`
	Free         decimal.Decimal `json:"free"`
	BestByDate   string          `json:"best_by_date"`
	DaysToExpiry int             `json:"days_to_expiry"`
	Critical     bool            `json:"critical"`
	Warnings     []WarningDTO    `json:"warnings,omitempty"`
}

// OverviewResponse página de la vista de stock.
type OverviewResponse struct {
	Items []StockPositionResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// OverviewQuery parámetros de GET /api/inventory/overview.
type OverviewQuery struct {
	ArticleID     string `query:"article_id"`
	ChargeID      string `query:"charge_id"`
	StorageArea   string `query:"storage_area"`
	OnlyCritical  bool   `query:"only_critical"`
	ThresholdDays string `query:"threshold_days"`
	AsOfDate      string `query:"as_of_date"`
}

// MovementQuery parámetros de GET /api/inventory/movements y de los exports.
type MovementQuery struct {
	From        string `query:"from"`
	To          string `query:"to"`
	ArticleID   string `query:"article_id"`
	ChargeID    string `query:"charge_id"`
	StorageArea string `query:"storage_area"`
	Kind        string `query:"kind"`
	Search      string `query:"search"`
}

// OperationResponse movimientos escritos por una operación del motor de transferencias.
type OperationResponse struct {
	OperationID string             `json:"operation_id"`
	Movements   []MovementResponse `json:"movements"`
}
