package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// MovementFilter filtros tipados para consultar el libro de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID  string
	LocationID string
	LotID      string
	Reference  string
	Kind       entity.MovementKind
	Limit      int
	Offset     int
}

// StockMovementRepository libro de movimientos: solo inserción y consulta, sin update ni delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// List ordena por fecha de creación ascendente (orden de escritura).
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
}
