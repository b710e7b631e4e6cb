package entity

import "time"

// MovementKind tipo de movimiento de inventario.
type MovementKind string

// Tipos de movimiento de inventario.
const (
	MovementKindIN     MovementKind = "IN"     // entrada (recepción o reverso)
	MovementKindOUT    MovementKind = "OUT"    // salida por venta
	MovementKindADJUST MovementKind = "ADJUST" // ajuste por conteo manual
)

// Valid indica si el tipo es uno de los conocidos.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindIN, MovementKindOUT, MovementKindADJUST:
		return true
	}
	return false
}

// StockMovement registro inmutable de un cambio de stock. Nunca se actualiza ni se borra:
// un reverso es un movimiento nuevo.
type StockMovement struct {
	ID             string
	ProductID      string
	LocationID     string
	LotID          *string
	Kind           MovementKind
	Quantity       int // OUT: cantidad consumida (positiva); IN: recibida; ADJUST: delta con signo
	QuantityBefore int
	Reason         string
	Reference      string // ID de la venta para movimientos de liquidación
	CreatedAt      time.Time
	CreatedBy      string
}
