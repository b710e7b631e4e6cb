package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales. La venta queda PENDING.
type CreateSaleRequest struct {
	LocationID string                  `json:"location_id" validate:"required"`
	Discount   decimal.Decimal         `json:"discount"`
	Lines      []CreateSaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateSaleLineRequest línea de venta; LotID opcional fija el lote.
type CreateSaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	LotID     string          `json:"lot_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"` // 0 = precio del producto
}

// SaleResponse venta con líneas.
type SaleResponse struct {
	ID          string             `json:"id"`
	LocationID  string             `json:"location_id"`
	Status      string             `json:"status"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Discount    decimal.Decimal    `json:"discount"`
	Total       decimal.Decimal    `json:"total"`
	Lines       []SaleLineResponse `json:"lines"`
	CreatedAt   time.Time          `json:"created_at"`
	FinalizedAt *time.Time         `json:"finalized_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
}

// SaleLineResponse línea en respuestas.
type SaleLineResponse struct {
	ID        string          `json:"id"`
	Position  int             `json:"position"`
	ProductID string          `json:"product_id"`
	LotID     *string         `json:"lot_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}
