package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// Policy reglas configurables de liquidación.
type Policy struct {
	// RestockOnCancel permite anular ventas FINALIZED devolviendo las unidades a sus lotes.
	RestockOnCancel bool
}

// SaleUseCase creación, consulta y liquidación (finalizar / anular) de ventas.
type SaleUseCase struct {
	txRunner     inventory.TxRunner
	ledger       *inventory.LotLedger
	allocator    *inventory.Allocator
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	stockRepo    repository.StockRepository
	publisher    ports.EventPublisher
	log          *logger.Logger
	policy       Policy
}

// NewSaleUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewSaleUseCase(
	txRunner inventory.TxRunner,
	ledger *inventory.LotLedger,
	allocator *inventory.Allocator,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.StockRepository,
	publisher ports.EventPublisher,
	log *logger.Logger,
	policy Policy,
) *SaleUseCase {
	if publisher == nil {
		publisher = ports.NoopEventPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SaleUseCase{
		txRunner:     txRunner,
		ledger:       ledger,
		allocator:    allocator,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
		publisher:    publisher,
		log:          log,
		policy:       policy,
	}
}

// lineQuantityScale decimales que admite la cantidad de una línea.
const lineQuantityScale = 4

// CreateSale registra una venta PENDING. No toca inventario: la asignación ocurre al finalizar.
func (uc *SaleUseCase) CreateSale(ctx context.Context, userID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la venta requiere al menos una línea", domain.ErrInvalidInput)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: descuento negativo", domain.ErrInvalidInput)
	}
	loc, err := uc.locationRepo.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("sucursal: %w", domain.ErrNotFound)
	}

	now := uc.ledger.Now()
	sale := &entity.Sale{
		ID:         uuid.Must(uuid.NewV7()).String(),
		LocationID: in.LocationID,
		Status:     entity.SaleStatusPending,
		Discount:   in.Discount,
		Lines:      make([]entity.SaleLine, 0, len(in.Lines)),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  userID,
	}
	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return nil, fmt.Errorf("línea %d: %w", i+1, domain.ErrInvalidQuantity)
		}
		// sale_lines guarda 4 decimales; más precisión se redondearía en silencio
		if !l.Quantity.Equal(l.Quantity.Round(lineQuantityScale)) {
			return nil, fmt.Errorf("línea %d: más de %d decimales: %w", i+1, lineQuantityScale, domain.ErrInvalidQuantity)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
		product, err := uc.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("línea %d, producto %s: %w", i+1, l.ProductID, domain.ErrNotFound)
		}
		price := l.UnitPrice
		if price.IsZero() {
			price = product.Price
		}
		var lotID *string
		if l.LotID != "" {
			id := l.LotID
			lotID = &id
		}
		sale.Lines = append(sale.Lines, entity.SaleLine{
			ID:        uuid.Must(uuid.NewV7()).String(),
			SaleID:    sale.ID,
			Position:  i + 1,
			ProductID: product.ID,
			LotID:     lotID,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
	}
	sale.RecomputeTotals()
	if sale.Discount.GreaterThan(sale.Subtotal) {
		return nil, fmt.Errorf("%w: descuento mayor al subtotal", domain.ErrInvalidInput)
	}

	if err := uc.txRunner.Run(ctx, func(repos inventory.TxRepos) error {
		for _, line := range sale.Lines {
			if line.LotID == nil {
				continue
			}
			lot, err := repos.Lots.GetByID(ctx, *line.LotID)
			if err != nil {
				return err
			}
			if lot == nil {
				return fmt.Errorf("línea %d, lote %s: %w", line.Position, *line.LotID, domain.ErrLotNotFound)
			}
		}
		return repos.Sales.Create(ctx, sale)
	}); err != nil {
		return nil, err
	}
	resp := toSaleResponse(sale)
	return &resp, nil
}

// GetSale devuelve la venta con sus líneas.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrSaleNotFound
	}
	resp := toSaleResponse(sale)
	return &resp, nil
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, dto.SaleLineResponse{
			ID:        l.ID,
			Position:  l.Position,
			ProductID: l.ProductID,
			LotID:     l.LotID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}
	return dto.SaleResponse{
		ID:          s.ID,
		LocationID:  s.LocationID,
		Status:      string(s.Status),
		Subtotal:    s.Subtotal,
		Discount:    s.Discount,
		Total:       s.Total,
		Lines:       lines,
		CreatedAt:   s.CreatedAt,
		FinalizedAt: s.FinalizedAt,
		CancelledAt: s.CancelledAt,
	}
}

// sumQuantity suma las cantidades de las líneas (para logs).
func sumQuantity(lines []entity.SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}
