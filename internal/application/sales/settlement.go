package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// SaleFinalizedEvent payload de sale.finalized.
type SaleFinalizedEvent struct {
	SaleID     string          `json:"sale_id"`
	LocationID string          `json:"location_id"`
	Total      decimal.Decimal `json:"total"`
	Lines      []FinalizedLine `json:"lines"`
}

// FinalizedLine asignación por lote de una línea.
type FinalizedLine struct {
	Position  int            `json:"position"`
	ProductID string         `json:"product_id"`
	Lots      []AllocatedLot `json:"lots"`
}

// AllocatedLot cantidad tomada de un lote.
type AllocatedLot struct {
	LotID     string `json:"lot_id"`
	LotNumber string `json:"lot_number"`
	Quantity  int    `json:"quantity"`
}

// SaleCancelledEvent payload de sale.cancelled.
type SaleCancelledEvent struct {
	SaleID     string `json:"sale_id"`
	LocationID string `json:"location_id"`
	Restocked  bool   `json:"restocked"`
	Movements  int    `json:"movements"`
}

// StockLowEvent payload de stock.low.
type StockLowEvent struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
	MinStock   int    `json:"min_stock"`
}

// FinalizeSale asigna los lotes de cada línea y deja la venta FINALIZED, todo en una transacción.
// Finalizar una venta ya FINALIZED no hace nada y devuelve la venta sin cambios.
func (uc *SaleUseCase) FinalizeSale(ctx context.Context, saleID, userID string) (*dto.SaleResponse, error) {
	var (
		sale      *entity.Sale
		changed   bool
		finalized []FinalizedLine
		movements int
	)
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		var err error
		sale, err = repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		switch sale.Status {
		case entity.SaleStatusFinalized:
			return nil
		case entity.SaleStatusCancelled:
			return domain.ErrCannotFinalizeCancelled
		}

		// Todas las cantidades se validan antes de tocar cualquier lote
		for _, line := range sale.Lines {
			qty, err := domaininv.WholeQuantity(line.Quantity)
			if err != nil {
				return fmt.Errorf("línea %d: %w", line.Position, err)
			}
			if qty == 0 {
				return fmt.Errorf("línea %d: %w", line.Position, domain.ErrInvalidQuantity)
			}
		}
		sale.RecomputeTotals()
		if sale.Discount.GreaterThan(sale.Subtotal) {
			return fmt.Errorf("%w: descuento mayor al subtotal", domain.ErrInvalidInput)
		}

		finalized = make([]FinalizedLine, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			product, err := repos.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("línea %d, producto %s: %w", line.Position, line.ProductID, domain.ErrNotFound)
			}
			req := inventory.AllocationRequest{
				ProductID:  line.ProductID,
				LocationID: sale.LocationID,
				Quantity:   line.Quantity,
				Reference:  sale.ID,
				UserID:     userID,
			}
			if line.LotID != nil {
				req.PinnedLotID = *line.LotID
			}
			allocs, err := uc.allocator.AllocateInTx(ctx, repos, product, req)
			if err != nil {
				return fmt.Errorf("línea %d: %w", line.Position, err)
			}
			fl := FinalizedLine{Position: line.Position, ProductID: line.ProductID, Lots: make([]AllocatedLot, 0, len(allocs))}
			for _, a := range allocs {
				fl.Lots = append(fl.Lots, AllocatedLot{LotID: a.LotID, LotNumber: a.LotNumber, Quantity: a.Quantity})
			}
			movements += len(allocs)
			finalized = append(finalized, fl)
		}

		now := uc.ledger.Now()
		sale.Status = entity.SaleStatusFinalized
		sale.FinalizedAt = &now
		sale.UpdatedAt = now
		changed = true
		return repos.Sales.UpdateSettlement(ctx, sale)
	})
	if err != nil {
		uc.logRejection(err, saleID, "finalizar")
		return nil, err
	}

	if changed {
		uc.log.Info().
			Str("sale_id", sale.ID).
			Str("location_id", sale.LocationID).
			Int("lines", len(sale.Lines)).
			Int("movements", movements).
			Str("units", sumQuantity(sale.Lines).String()).
			Str("total", sale.Total.String()).
			Msg("venta finalizada")
		uc.publish(ctx, ports.EventSaleFinalized, SaleFinalizedEvent{
			SaleID:     sale.ID,
			LocationID: sale.LocationID,
			Total:      sale.Total,
			Lines:      finalized,
		})
		uc.checkLowStock(ctx, sale)
	}
	resp := toSaleResponse(sale)
	return &resp, nil
}

// CancelSale anula la venta. PENDING pasa a CANCELLED sin tocar inventario; FINALIZED solo se anula
// si la política lo permite y en ese caso cada salida vuelve a su lote. Anular dos veces no hace nada.
func (uc *SaleUseCase) CancelSale(ctx context.Context, saleID, userID string) (*dto.SaleResponse, error) {
	var (
		sale      *entity.Sale
		changed   bool
		restocked bool
		movements int
	)
	err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		var err error
		sale, err = repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		switch sale.Status {
		case entity.SaleStatusCancelled:
			return nil
		case entity.SaleStatusFinalized:
			if !uc.policy.RestockOnCancel {
				return domain.ErrCannotCancelFinalized
			}
			reversed, err := uc.ledger.Reverse(ctx, repos, sale.ID, userID)
			if err != nil {
				return err
			}
			restocked = true
			movements = len(reversed)
		}

		now := uc.ledger.Now()
		sale.Status = entity.SaleStatusCancelled
		sale.CancelledAt = &now
		sale.UpdatedAt = now
		changed = true
		return repos.Sales.UpdateSettlement(ctx, sale)
	})
	if err != nil {
		uc.logRejection(err, saleID, "anular")
		return nil, err
	}

	if changed {
		uc.log.Info().
			Str("sale_id", sale.ID).
			Str("location_id", sale.LocationID).
			Bool("restocked", restocked).
			Int("movements", movements).
			Msg("venta anulada")
		uc.publish(ctx, ports.EventSaleCancelled, SaleCancelledEvent{
			SaleID:     sale.ID,
			LocationID: sale.LocationID,
			Restocked:  restocked,
			Movements:  movements,
		})
	}
	resp := toSaleResponse(sale)
	return &resp, nil
}

// checkLowStock avisa por cada producto de la venta cuyo stock quedó en o bajo el mínimo.
func (uc *SaleUseCase) checkLowStock(ctx context.Context, sale *entity.Sale) {
	seen := make(map[string]bool)
	for _, line := range sale.Lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		product, err := uc.productRepo.GetByID(ctx, line.ProductID)
		if err != nil || product == nil || product.MinStock <= 0 {
			continue
		}
		stock, err := uc.stockRepo.Get(ctx, line.ProductID, sale.LocationID)
		if err != nil {
			uc.log.Warn().Err(err).Str("product_id", line.ProductID).Msg("no se pudo leer stock agregado")
			continue
		}
		if stock.Quantity > product.MinStock {
			continue
		}
		uc.log.Warn().
			Str("product_id", product.ID).
			Str("sku", product.SKU).
			Str("location_id", sale.LocationID).
			Int("quantity", stock.Quantity).
			Int("min_stock", product.MinStock).
			Msg("stock bajo el mínimo")
		uc.publish(ctx, ports.EventStockLow, StockLowEvent{
			ProductID:  product.ID,
			SKU:        product.SKU,
			LocationID: sale.LocationID,
			Quantity:   stock.Quantity,
			MinStock:   product.MinStock,
		})
	}
}

func (uc *SaleUseCase) publish(ctx context.Context, eventType string, payload any) {
	if err := uc.publisher.Publish(ctx, eventType, payload); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Msg("no se pudo publicar evento")
	}
}

// logRejection registra rechazos de negocio en warn y fallas de infraestructura en error.
func (uc *SaleUseCase) logRejection(err error, saleID, op string) {
	if errors.Is(err, domain.ErrPersistence) {
		uc.log.Error().Err(err).Str("sale_id", saleID).Str("op", op).Msg("falla de persistencia en liquidación")
		return
	}
	uc.log.Warn().Err(err).Str("sale_id", saleID).Str("op", op).Msg("liquidación rechazada")
}
