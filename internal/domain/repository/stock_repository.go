package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// StockRepository define el puerto para el agregado producto+sucursal.
// Usado dentro de transacciones; siempre se bloquea después de los lotes.
type StockRepository interface {
	// Get devuelve stock en cero si la fila no existe.
	Get(ctx context.Context, productID, locationID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); si no existe la crea en cero.
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	ListByLocation(ctx context.Context, locationID string) ([]*entity.Stock, error)
}
