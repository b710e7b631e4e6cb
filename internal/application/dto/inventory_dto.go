package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLotRequest body para POST /api/lots.
// ExpiryDate en formato YYYY-MM-DD; vacío = sin vencimiento.
type ReceiveLotRequest struct {
	ProductID  string          `json:"product_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	LotNumber  string          `json:"lot_number,omitempty" validate:"max=64"`
	ExpiryDate string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// AdjustLotRequest body para PUT /api/lots/:id/quantity (conteo manual).
type AdjustLotRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason,omitempty" validate:"max=255"`
}

// LotResponse lote en respuestas.
type LotResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	LotNumber  string          `json:"lot_number"`
	ExpiryDate *string         `json:"expiry_date,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Sellable   bool            `json:"sellable"`
	ReceivedAt time.Time       `json:"received_at"`
}

// ListLotsQuery query params para GET /api/lots.
type ListLotsQuery struct {
	ProductID      string `query:"product_id"`
	LocationID     string `query:"location_id"`
	IncludeEmpty   bool   `query:"include_empty"`
	IncludeExpired bool   `query:"include_expired"`
}

// ListMovementsQuery query params para GET /api/movements.
type ListMovementsQuery struct {
	ProductID  string `query:"product_id"`
	LocationID string `query:"location_id"`
	LotID      string `query:"lot_id"`
	Reference  string `query:"reference"`
	Kind       string `query:"kind" validate:"omitempty,oneof=IN OUT ADJUST"`
	Limit      int    `query:"limit" validate:"min=0,max=500"`
	Offset     int    `query:"offset" validate:"min=0"`
}

// MovementResponse movimiento del libro de inventario.
type MovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	LocationID     string    `json:"location_id"`
	LotID          *string   `json:"lot_id,omitempty"`
	Kind           string    `json:"kind"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantity_before"`
	Reason         string    `json:"reason,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by,omitempty"`
}

// LowStockDTO producto con stock agregado en o bajo su mínimo en una sucursal.
type LowStockDTO struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	ProductName       string `json:"product_name"`
	LocationID        string `json:"location_id"`
	CurrentStock      int    `json:"current_stock"`
	MinStock          int    `json:"min_stock"`
	SuggestedOrderQty int    `json:"suggested_order_qty"` // MinStock * 1.5 - CurrentStock
	Priority          int    `json:"priority"`            // 1 = más urgente
}
