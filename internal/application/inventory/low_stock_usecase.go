package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// LowStockUseCase genera la lista de reposición de una sucursal a partir del stock agregado.
type LowStockUseCase struct {
	stockRepo    repository.StockRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewLowStockUseCase construye el caso de uso de reposición.
func NewLowStockUseCase(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *LowStockUseCase {
	return &LowStockUseCase{
		stockRepo:    stockRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// LowStock devuelve los productos con stock en o bajo su mínimo, con la cantidad sugerida
// de pedido (MinStock * 1.5 - actual) y prioridad por mayor déficit.
// Solo considera productos que alguna vez tuvieron stock en la sucursal.
func (uc *LowStockUseCase) LowStock(ctx context.Context, locationID string) ([]dto.LowStockDTO, error) {
	if locationID == "" {
		return nil, fmt.Errorf("%w: location_id requerido", domain.ErrInvalidInput)
	}
	loc, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("sucursal: %w", domain.ErrNotFound)
	}

	rows, err := uc.stockRepo.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockDTO, 0)
	for _, st := range rows {
		p, err := uc.productRepo.GetByID(ctx, st.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || p.MinStock <= 0 || st.Quantity > p.MinStock {
			continue
		}
		ideal := decimal.NewFromInt(int64(p.MinStock)).Mul(decimal.NewFromFloat(1.5)).Ceil()
		suggested := int(ideal.IntPart()) - st.Quantity
		if suggested < 0 {
			suggested = 0
		}
		out = append(out, dto.LowStockDTO{
			ProductID:         p.ID,
			SKU:               p.SKU,
			ProductName:       p.Name,
			LocationID:        locationID,
			CurrentStock:      st.Quantity,
			MinStock:          p.MinStock,
			SuggestedOrderQty: suggested,
		})
	}

	// Mayor déficit primero; desempate por SKU
	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].MinStock - out[i].CurrentStock
		dj := out[j].MinStock - out[j].CurrentStock
		if di != dj {
			return di > dj
		}
		return out[i].SKU < out[j].SKU
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
