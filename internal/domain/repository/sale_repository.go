package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia de ventas y sus líneas.
// GetByID y GetForUpdate devuelven (nil, nil) si no existe; las líneas vienen ordenadas por Position.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateSettlement persiste estado, totales y fechas de liquidación (y el total de cada línea).
	UpdateSettlement(ctx context.Context, sale *entity.Sale) error
}
