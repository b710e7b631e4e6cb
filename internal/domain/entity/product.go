package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. Desde el núcleo de inventario es de solo lectura,
// salvo Cost (promedio ponderado recalculado al recibir lotes).
type Product struct {
	ID                   string
	SKU                  string // código único
	Name                 string
	Price                decimal.Decimal // precio de venta por defecto
	Cost                 decimal.Decimal // costo promedio ponderado (inicia en 0)
	TracksExpiry         bool            // el producto controla vencimiento por lote
	AllowSaleWhenExpired bool            // permite vender lotes vencidos
	MinStock             int             // umbral de stock mínimo por sucursal
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
