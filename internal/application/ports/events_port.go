package ports

import "context"

// Tipos de evento publicados después del commit.
const (
	EventSaleFinalized = "sale.finalized"
	EventSaleCancelled = "sale.cancelled"
	EventLotReceived   = "lot.received"
	EventLotAdjusted   = "lot.adjusted"
	EventStockLow      = "stock.low"
)

// EventPublisher define el puerto de salida para eventos de inventario y ventas.
// Se invoca solo después de un commit exitoso; un error de publicación no revierte nada.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// NoopEventPublisher descarta los eventos (sin broker configurado, tests).
type NoopEventPublisher struct{}

// Publish no hace nada.
func (NoopEventPublisher) Publish(context.Context, string, any) error { return nil }
