package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// LotFilter filtros tipados para listar lotes.
type LotFilter struct {
	ProductID    string
	LocationID   string
	IncludeEmpty bool // incluir lotes con cantidad 0
}

// LotRepository define el puerto de persistencia de lotes.
// Las mutaciones solo ocurren dentro de la transacción del caller.
type LotRepository interface {
	// Create persiste un lote nuevo; ErrDuplicate si el número ya existe en producto+sucursal.
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetForUpdate busca por ID y bloquea la fila. (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// ListCandidatesForUpdate lotes con cantidad > 0 del producto en la sucursal, bloqueados.
	ListCandidatesForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Lot, error)
	List(ctx context.Context, filter LotFilter) ([]*entity.Lot, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
}
