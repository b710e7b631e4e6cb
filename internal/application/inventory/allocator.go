package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
)

// AllocationRequest pedido de asignación de una línea de venta.
type AllocationRequest struct {
	ProductID   string
	LocationID  string
	Quantity    decimal.Decimal
	PinnedLotID string // vacío = FEFO
	Reference   string // ID de la venta
	UserID      string
}

// Allocation cantidad tomada de un lote.
type Allocation struct {
	LotID          string
	LotNumber      string
	Quantity       int
	QuantityBefore int
	UnitCost       decimal.Decimal
	MovementID     string
}

// Allocator motor de asignación FEFO. Corre siempre dentro de la transacción del caller:
// si retorna error, el caller hace rollback y nada de lo mutado persiste.
type Allocator struct {
	ledger *LotLedger
}

// NewAllocator construye el motor sobre el libro de lotes.
func NewAllocator(ledger *LotLedger) *Allocator {
	return &Allocator{ledger: ledger}
}

// AllocateInTx toma la cantidad pedida de los lotes del producto en la sucursal.
// product puede ser nil; en ese caso se lee del catálogo de la tx.
func (a *Allocator) AllocateInTx(ctx context.Context, repos TxRepos, product *entity.Product, req AllocationRequest) ([]Allocation, error) {
	qty, err := domaininv.WholeQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	if req.PinnedLotID != "" {
		lot, err := repos.Lots.GetForUpdate(ctx, req.PinnedLotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, domain.ErrLotNotFound
		}
		if lot.ProductID != req.ProductID {
			return nil, domain.ErrLotProductMismatch
		}
		if lot.LocationID != req.LocationID {
			return nil, domain.ErrLotLocationMismatch
		}
		if qty == 0 {
			return []Allocation{}, nil
		}
		if lot.Quantity < qty {
			return nil, fmt.Errorf("lote %s: disponible %d, pedido %d: %w", lot.LotNumber, lot.Quantity, qty, domain.ErrInsufficientStock)
		}
		return a.take(ctx, repos, []*entity.Lot{lot}, qty, req)
	}

	if qty == 0 {
		return []Allocation{}, nil
	}
	if product == nil {
		product, err = repos.Products.GetByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
		}
	}
	lots, err := a.ledger.CandidatesFor(ctx, repos, product, req.LocationID, a.ledger.Now())
	if err != nil {
		return nil, err
	}
	if avail := domaininv.Available(lots); avail < qty {
		return nil, fmt.Errorf("producto %s: disponible %d, pedido %d: %w", product.SKU, avail, qty, domain.ErrInsufficientStock)
	}
	return a.take(ctx, repos, lots, qty, req)
}

// take recorre los lotes en orden y descuenta hasta cubrir qty; luego baja el agregado.
func (a *Allocator) take(ctx context.Context, repos TxRepos, lots []*entity.Lot, qty int, req AllocationRequest) ([]Allocation, error) {
	now := a.ledger.Now()
	remaining := qty
	out := make([]Allocation, 0, len(lots))
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		n := min(lot.Quantity, remaining)
		if n == 0 {
			continue
		}
		before := lot.Quantity
		mov, err := a.ledger.consume(ctx, repos, lot, n, req.Reference, req.UserID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, Allocation{
			LotID:          lot.ID,
			LotNumber:      lot.LotNumber,
			Quantity:       n,
			QuantityBefore: before,
			UnitCost:       lot.UnitCost,
			MovementID:     mov.ID,
		})
		remaining -= n
	}
	if remaining > 0 {
		return nil, domain.ErrInsufficientStock
	}

	stock, err := repos.Stock.GetForUpdate(ctx, req.ProductID, req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := a.ledger.moveStock(ctx, repos, stock, -qty, now); err != nil {
		return nil, err
	}
	return out, nil
}
