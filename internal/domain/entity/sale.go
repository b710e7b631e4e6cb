package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de la venta. PENDING es el único estado no terminal.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusFinalized SaleStatus = "FINALIZED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// Sale cabecera de venta. Total = Subtotal - Discount; Subtotal = suma de Total de las líneas.
type Sale struct {
	ID          string
	LocationID  string
	Status      SaleStatus
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	Lines       []SaleLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinalizedAt *time.Time
	CancelledAt *time.Time
	CreatedBy   string
}

// SaleLine línea de venta. LotID fija un lote explícito (omite FEFO).
type SaleLine struct {
	ID        string
	SaleID    string
	Position  int
	ProductID string
	LotID     *string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// RecomputeTotals recalcula el total de cada línea, el subtotal y el total de la venta.
func (s *Sale) RecomputeTotals() {
	subtotal := decimal.Zero
	for i := range s.Lines {
		s.Lines[i].Total = s.Lines[i].Quantity.Mul(s.Lines[i].UnitPrice)
		subtotal = subtotal.Add(s.Lines[i].Total)
	}
	s.Subtotal = subtotal
	s.Total = subtotal.Sub(s.Discount)
}
