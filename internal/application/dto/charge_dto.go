package dto

import "time"

// CreateChargeRequest body para POST /api/charges.
type CreateChargeRequest struct {
	ArticleID     string `json:"article_id"`
	BestByDate    string `json:"best_by_date"` // YYYY-MM-DD
	IsFrozenArea  bool   `json:"is_frozen_area"`
	SlaughterDate string `json:"slaughter_date,omitempty"`
	SupplierID    string `json:"supplier_id,omitempty"`
}

// UpdateChargeRequest body para PATCH /api/charges/:id. Campos ausentes no se tocan.
type UpdateChargeRequest struct {
	ArticleID          *string `json:"article_id,omitempty"`
	BestByDate         *string `json:"best_by_date,omitempty"`
	IsFrozenArea       *bool   `json:"is_frozen_area,omitempty"`
	SlaughterDate      *string `json:"slaughter_date,omitempty"`
	ClearSlaughterDate bool    `json:"clear_slaughter_date,omitempty"`
	SupplierID         *string `json:"supplier_id,omitempty"`
}

// ChargeResponse charge en respuestas.
type ChargeResponse struct {
	ID            string     `json:"id"`
	ArticleID     string     `json:"article_id"`
	BestByDate    string     `json:"best_by_date"`
	IsFrozenArea  bool       `json:"is_frozen_area"`
	StorageArea   string     `json:"storage_area"`
	SlaughterDate *string    `json:"slaughter_date,omitempty"`
	SupplierID    string     `json:"supplier_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// ChargeListResponse listado paginado de charges.
type ChargeListResponse struct {
	Items []ChargeResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// ReservationResponse reserva en respuestas (solo lectura).
type ReservationResponse struct {
	ID           string `json:"id"`
	ChargeID     string `json:"charge_id"`
	StorageArea  string `json:"storage_area"`
	OrderID      string `json:"order_id"`
	CustomerID   string `json:"customer_id"`
	DeliveryDate string `json:"delivery_date"`
	Quantity     string `json:"quantity"`
	Status       string `json:"status"`
}
