package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa un lote físico de un producto en una sucursal.
// LotNumber es único solo dentro de producto+sucursal. Quantity nunca es negativa.
type Lot struct {
	ID         string
	ProductID  string
	LocationID string
	LotNumber  string
	ExpiryDate *time.Time // nil = sin vencimiento
	Quantity   int
	UnitCost   decimal.Decimal
	ReceivedAt time.Time
	UpdatedAt  time.Time
}

// ExpiresBefore indica si el lote vence antes del día de asOf (granularidad de día).
// Un lote que vence hoy todavía no está vencido.
func (l *Lot) ExpiresBefore(asOf time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return DateOf(*l.ExpiryDate).Before(DateOf(asOf))
}

// DateOf trunca t a la fecha UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
