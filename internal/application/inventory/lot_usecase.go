package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, productID string)
}

// LotUseCase casos de uso de lotes: recepción, ajuste por conteo y consulta.
type LotUseCase struct {
	txRunner     TxRunner
	ledger       *LotLedger
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	lotRepo      repository.LotRepository
	publisher    ports.EventPublisher
	log          *logger.Logger
}

// NewLotUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewLotUseCase(
	txRunner TxRunner,
	ledger *LotLedger,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	lotRepo repository.LotRepository,
	publisher ports.EventPublisher,
	log *logger.Logger,
) *LotUseCase {
	if publisher == nil {
		publisher = ports.NoopEventPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LotUseCase{
		txRunner:     txRunner,
		ledger:       ledger,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		lotRepo:      lotRepo,
		publisher:    publisher,
		log:          log,
	}
}

// ReceiveLot registra la entrada de un lote en una sucursal.
func (uc *LotUseCase) ReceiveLot(ctx context.Context, userID string, in dto.ReceiveLotRequest) (*dto.LotResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	var expiry *time.Time
	if in.ExpiryDate != "" {
		d, err := time.Parse(time.DateOnly, in.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha de vencimiento %q", domain.ErrInvalidInput, in.ExpiryDate)
		}
		expiry = &d
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}
	location, err := uc.locationRepo.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, fmt.Errorf("sucursal: %w", domain.ErrNotFound)
	}

	var lot *entity.Lot
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		lot, err = uc.ledger.Receive(ctx, repos, ReceiveInput{
			ProductID:  in.ProductID,
			LocationID: in.LocationID,
			LotNumber:  in.LotNumber,
			ExpiryDate: expiry,
			Quantity:   in.Quantity,
			UnitCost:   in.UnitCost,
			UserID:     userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("lot_id", lot.ID).
		Str("lot_number", lot.LotNumber).
		Str("product_id", lot.ProductID).
		Str("location_id", lot.LocationID).
		Int("quantity", lot.Quantity).
		Msg("lote recibido")
	uc.publish(ctx, ports.EventLotReceived, lotEvent(lot, lot.Quantity))
	// El costo promedio cambió dentro de la tx; una cache de catálogo debe soltar la entrada.
	if inv, ok := uc.productRepo.(cacheInvalidator); ok {
		inv.Invalidate(ctx, lot.ProductID)
	}

	resp := toLotResponse(lot, product, uc.ledger.Now())
	return &resp, nil
}

// AdjustLot fija la cantidad contada de un lote.
func (uc *LotUseCase) AdjustLot(ctx context.Context, userID, lotID string, in dto.AdjustLotRequest) (*dto.LotResponse, error) {
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	var (
		lot *entity.Lot
		mov *entity.StockMovement
	)
	err := uc.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		lot, mov, err = uc.ledger.Adjust(ctx, repos, lotID, in.Quantity, in.Reason, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("lot_id", lot.ID).
		Int("before", mov.QuantityBefore).
		Int("delta", mov.Quantity).
		Msg("lote ajustado")
	uc.publish(ctx, ports.EventLotAdjusted, lotEvent(lot, mov.Quantity))

	// el ajuste ya está confirmado; un error aquí no debe provocar un reintento
	asOf := uc.ledger.Now()
	product, err := uc.productRepo.GetByID(ctx, lot.ProductID)
	if err != nil {
		uc.log.Warn().Err(err).Str("lot_id", lot.ID).Msg("lote ajustado sin datos del producto")
		resp := toLotResponse(lot, nil, asOf)
		resp.Sellable = !lot.ExpiresBefore(asOf)
		return &resp, nil
	}
	resp := toLotResponse(lot, product, asOf)
	return &resp, nil
}

// ListLots lista lotes en orden FEFO marcando si la compuerta de vencimiento los deja vender.
func (uc *LotUseCase) ListLots(ctx context.Context, q dto.ListLotsQuery) ([]dto.LotResponse, error) {
	lots, err := uc.lotRepo.List(ctx, repository.LotFilter{
		ProductID:    q.ProductID,
		LocationID:   q.LocationID,
		IncludeEmpty: q.IncludeEmpty,
	})
	if err != nil {
		return nil, err
	}
	domaininv.SortFEFO(lots)

	asOf := uc.ledger.Now()
	products := make(map[string]*entity.Product)
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		p, ok := products[l.ProductID]
		if !ok {
			p, err = uc.productRepo.GetByID(ctx, l.ProductID)
			if err != nil {
				return nil, err
			}
			products[l.ProductID] = p
		}
		resp := toLotResponse(l, p, asOf)
		if !resp.Sellable && !q.IncludeExpired {
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func (uc *LotUseCase) publish(ctx context.Context, eventType string, payload any) {
	if err := uc.publisher.Publish(ctx, eventType, payload); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Msg("no se pudo publicar evento")
	}
}

// LotEvent payload de lot.received y lot.adjusted.
type LotEvent struct {
	LotID      string `json:"lot_id"`
	LotNumber  string `json:"lot_number"`
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
	Delta      int    `json:"delta"`
}

func lotEvent(l *entity.Lot, delta int) LotEvent {
	return LotEvent{
		LotID:      l.ID,
		LotNumber:  l.LotNumber,
		ProductID:  l.ProductID,
		LocationID: l.LocationID,
		Quantity:   l.Quantity,
		Delta:      delta,
	}
}

func toLotResponse(l *entity.Lot, product *entity.Product, asOf time.Time) dto.LotResponse {
	var expiry *string
	if l.ExpiryDate != nil {
		s := l.ExpiryDate.Format(time.DateOnly)
		expiry = &s
	}
	return dto.LotResponse{
		ID:         l.ID,
		ProductID:  l.ProductID,
		LocationID: l.LocationID,
		LotNumber:  l.LotNumber,
		ExpiryDate: expiry,
		Quantity:   l.Quantity,
		UnitCost:   l.UnitCost,
		Sellable:   domaininv.IsSellable(l, product, asOf),
		ReceivedAt: l.ReceivedAt,
	}
}
