package entity

import "time"

// Stock es el agregado de un producto en una sucursal.
// Siempre igual a la suma de Quantity de sus lotes; se actualiza en la misma transacción que el lote.
type Stock struct {
	ProductID  string
	LocationID string
	Quantity   int
	UpdatedAt  time.Time
}
