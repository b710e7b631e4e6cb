package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

const (
	reasonReceive = "recepción de lote"
	reasonAdjust  = "ajuste por conteo"
	reasonRestock = "anulación de venta"
)

// ReceiveInput datos de una recepción de lote.
type ReceiveInput struct {
	ProductID  string
	LocationID string
	LotNumber  string // vacío = se genera LOTE-<yyyymmdd>-<id corto>
	ExpiryDate *time.Time
	Quantity   int
	UnitCost   decimal.Decimal
	UserID     string
}

// LotLedger mantiene los lotes y el stock agregado producto+sucursal.
// Nunca abre transacciones: todas las mutaciones usan los repositorios de la tx del caller.
type LotLedger struct {
	movements *MovementLedger
	now       func() time.Time
}

// NewLotLedger construye el libro de lotes.
func NewLotLedger(movements *MovementLedger) *LotLedger {
	return &LotLedger{movements: movements, now: time.Now}
}

// SetClock reemplaza el reloj (fecha de referencia del vencimiento y marcas de tiempo).
func (l *LotLedger) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Now hora actual según el reloj del libro.
func (l *LotLedger) Now() time.Time { return l.now() }

// Receive crea un lote con su movimiento IN, suma al stock agregado y recalcula el costo promedio.
func (l *LotLedger) Receive(ctx context.Context, repos TxRepos, in ReceiveInput) (*entity.Lot, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	product, err := repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto: %w", domain.ErrNotFound)
	}

	now := l.now()
	id := uuid.Must(uuid.NewV7()).String()
	number := strings.TrimSpace(in.LotNumber)
	if number == "" {
		number = generateLotNumber(now, id)
	}
	var expiry *time.Time
	if in.ExpiryDate != nil {
		d := entity.DateOf(*in.ExpiryDate)
		expiry = &d
	}
	lot := &entity.Lot{
		ID:         id,
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		LotNumber:  number,
		ExpiryDate: expiry,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		ReceivedAt: now,
		UpdatedAt:  now,
	}
	if err := repos.Lots.Create(ctx, lot); err != nil {
		return nil, err
	}

	// Costo promedio ponderado con el stock previo de la sucursal
	stock, err := repos.Stock.GetForUpdate(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}
	newCost := domaininv.WeightedCost(stock.Quantity, product.Cost, in.Quantity, in.UnitCost)
	if err := l.moveStock(ctx, repos, stock, in.Quantity, now); err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateCost(ctx, product.ID, newCost); err != nil {
		return nil, err
	}

	lotID := lot.ID
	if _, err := l.movements.Record(ctx, repos.Movements, MovementInput{
		ProductID:      lot.ProductID,
		LocationID:     lot.LocationID,
		LotID:          &lotID,
		Kind:           entity.MovementKindIN,
		Quantity:       in.Quantity,
		QuantityBefore: 0,
		Reason:         reasonReceive,
		UserID:         in.UserID,
		At:             now,
	}); err != nil {
		return nil, err
	}
	return lot, nil
}

// Adjust fija la cantidad de un lote por conteo manual. El movimiento ADJUST guarda el delta con signo;
// un delta cero igual queda registrado como evidencia del conteo.
func (l *LotLedger) Adjust(ctx context.Context, repos TxRepos, lotID string, newQuantity int, reason, userID string) (*entity.Lot, *entity.StockMovement, error) {
	if newQuantity < 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	lot, err := repos.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, nil, err
	}
	if lot == nil {
		return nil, nil, domain.ErrLotNotFound
	}
	now := l.now()
	before := lot.Quantity
	delta := newQuantity - before
	if delta != 0 {
		if err := repos.Lots.UpdateQuantity(ctx, lot.ID, newQuantity); err != nil {
			return nil, nil, err
		}
		stock, err := repos.Stock.GetForUpdate(ctx, lot.ProductID, lot.LocationID)
		if err != nil {
			return nil, nil, err
		}
		if err := l.moveStock(ctx, repos, stock, delta, now); err != nil {
			return nil, nil, err
		}
		lot.Quantity = newQuantity
		lot.UpdatedAt = now
	}
	if strings.TrimSpace(reason) == "" {
		reason = reasonAdjust
	}
	id := lot.ID
	mov, err := l.movements.Record(ctx, repos.Movements, MovementInput{
		ProductID:      lot.ProductID,
		LocationID:     lot.LocationID,
		LotID:          &id,
		Kind:           entity.MovementKindADJUST,
		Quantity:       delta,
		QuantityBefore: before,
		Reason:         reason,
		UserID:         userID,
		At:             now,
	})
	if err != nil {
		return nil, nil, err
	}
	return lot, mov, nil
}

// CandidatesFor lotes con cantidad > 0 del producto en la sucursal, bloqueados y en orden FEFO.
// Si product no es nil se aplica la compuerta de vencimiento a la fecha asOf.
func (l *LotLedger) CandidatesFor(ctx context.Context, repos TxRepos, product *entity.Product, locationID string, asOf time.Time) ([]*entity.Lot, error) {
	lots, err := repos.Lots.ListCandidatesForUpdate(ctx, product.ID, locationID)
	if err != nil {
		return nil, err
	}
	lots = domaininv.FilterSellable(lots, product, asOf)
	domaininv.SortFEFO(lots)
	return lots, nil
}

// Reverse devuelve a su lote de origen cada salida OUT con la referencia dada (anulación de venta).
// Bloquea primero todos los lotes en orden de ID y luego los agregados de stock.
func (l *LotLedger) Reverse(ctx context.Context, repos TxRepos, reference, userID string) ([]*entity.StockMovement, error) {
	outs, err := repos.Movements.List(ctx, repository.MovementFilter{Reference: reference, Kind: entity.MovementKindOUT})
	if err != nil {
		return nil, err
	}
	if len(outs) == 0 {
		return []*entity.StockMovement{}, nil
	}

	lotIDs := make([]string, 0, len(outs))
	seen := make(map[string]bool)
	for _, m := range outs {
		if m.LotID == nil {
			return nil, fmt.Errorf("movimiento %s sin lote: %w", m.ID, domain.ErrLotNotFound)
		}
		if !seen[*m.LotID] {
			seen[*m.LotID] = true
			lotIDs = append(lotIDs, *m.LotID)
		}
	}
	slices.Sort(lotIDs)
	lots := make(map[string]*entity.Lot, len(lotIDs))
	for _, id := range lotIDs {
		lot, err := repos.Lots.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, fmt.Errorf("lote %s: %w", id, domain.ErrLotNotFound)
		}
		lots[id] = lot
	}

	now := l.now()
	type key struct{ product, location string }
	deltas := make(map[key]int)
	keys := make([]key, 0)
	reversed := make([]*entity.StockMovement, 0, len(outs))
	for _, m := range outs {
		lot := lots[*m.LotID]
		mov, err := l.restock(ctx, repos, lot, m.Quantity, reference, userID, now)
		if err != nil {
			return nil, err
		}
		reversed = append(reversed, mov)
		k := key{lot.ProductID, lot.LocationID}
		if _, ok := deltas[k]; !ok {
			keys = append(keys, k)
		}
		deltas[k] += m.Quantity
	}

	for _, k := range keys {
		stock, err := repos.Stock.GetForUpdate(ctx, k.product, k.location)
		if err != nil {
			return nil, err
		}
		if err := l.moveStock(ctx, repos, stock, deltas[k], now); err != nil {
			return nil, err
		}
	}
	return reversed, nil
}

// consume descuenta qty del lote (ya bloqueado) y registra el movimiento OUT.
func (l *LotLedger) consume(ctx context.Context, repos TxRepos, lot *entity.Lot, qty int, reference, userID string, at time.Time) (*entity.StockMovement, error) {
	before := lot.Quantity
	if qty <= 0 || qty > before {
		return nil, domain.ErrInsufficientStock
	}
	if err := repos.Lots.UpdateQuantity(ctx, lot.ID, before-qty); err != nil {
		return nil, err
	}
	lot.Quantity = before - qty
	lot.UpdatedAt = at
	id := lot.ID
	return l.movements.Record(ctx, repos.Movements, MovementInput{
		ProductID:      lot.ProductID,
		LocationID:     lot.LocationID,
		LotID:          &id,
		Kind:           entity.MovementKindOUT,
		Quantity:       qty,
		QuantityBefore: before,
		Reason:         "venta",
		Reference:      reference,
		UserID:         userID,
		At:             at,
	})
}

// restock devuelve qty al lote con un movimiento IN (reverso de una salida).
func (l *LotLedger) restock(ctx context.Context, repos TxRepos, lot *entity.Lot, qty int, reference, userID string, at time.Time) (*entity.StockMovement, error) {
	before := lot.Quantity
	if err := repos.Lots.UpdateQuantity(ctx, lot.ID, before+qty); err != nil {
		return nil, err
	}
	lot.Quantity = before + qty
	lot.UpdatedAt = at
	id := lot.ID
	return l.movements.Record(ctx, repos.Movements, MovementInput{
		ProductID:      lot.ProductID,
		LocationID:     lot.LocationID,
		LotID:          &id,
		Kind:           entity.MovementKindIN,
		Quantity:       qty,
		QuantityBefore: before,
		Reason:         reasonRestock,
		Reference:      reference,
		UserID:         userID,
		At:             at,
	})
}

// moveStock aplica delta al agregado producto+sucursal (fila ya bloqueada).
func (l *LotLedger) moveStock(ctx context.Context, repos TxRepos, stock *entity.Stock, delta int, at time.Time) error {
	next := stock.Quantity + delta
	if next < 0 {
		return fmt.Errorf("stock agregado negativo (%d): %w", next, domain.ErrInsufficientStock)
	}
	stock.Quantity = next
	stock.UpdatedAt = at
	return repos.Stock.Upsert(ctx, stock)
}

// generateLotNumber LOTE-20260115-0192f3a1.
func generateLotNumber(at time.Time, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[len(short)-8:]
	}
	return fmt.Sprintf("LOTE-%s-%s", at.UTC().Format("20060102"), strings.ToUpper(short))
}
