package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func newLotUseCase(f *fixture, pub ports.EventPublisher) *inventory.LotUseCase {
	return inventory.NewLotUseCase(f.store, f.ledger, f.store.Products(), f.store.Locations(), f.store.Lots(), pub, nil)
}

func TestLotUseCase_ReceiveLotPublicaEvento(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	uc := newLotUseCase(f, pub)

	resp, err := uc.ReceiveLot(f.ctx, "bodeguero-1", dto.ReceiveLotRequest{
		ProductID:  f.product.ID,
		LocationID: f.location.ID,
		LotNumber:  "R-1",
		ExpiryDate: "2026-04-30",
		Quantity:   6,
		UnitCost:   decimal.NewFromInt(350),
	})
	require.NoError(t, err)
	assert.Equal(t, "R-1", resp.LotNumber)
	require.NotNil(t, resp.ExpiryDate)
	assert.Equal(t, "2026-04-30", *resp.ExpiryDate)
	assert.True(t, resp.Sellable)
	assert.Equal(t, []string{ports.EventLotReceived}, pub.events)
}

func TestLotUseCase_ReceiveLotValidaReferencias(t *testing.T) {
	f := newFixture(t)
	uc := newLotUseCase(f, nil)

	_, err := uc.ReceiveLot(f.ctx, "", dto.ReceiveLotRequest{ProductID: "x", LocationID: f.location.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.ReceiveLot(f.ctx, "", dto.ReceiveLotRequest{ProductID: f.product.ID, LocationID: "x", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.ReceiveLot(f.ctx, "", dto.ReceiveLotRequest{ProductID: f.product.ID, LocationID: f.location.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = uc.ReceiveLot(f.ctx, "", dto.ReceiveLotRequest{ProductID: f.product.ID, LocationID: f.location.ID, Quantity: 1, ExpiryDate: "31/12/2026"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLotUseCase_FallaDePublicacionNoRevierte(t *testing.T) {
	f := newFixture(t)
	uc := newLotUseCase(f, &recordingPublisher{err: errors.New("broker caído")})

	_, err := uc.ReceiveLot(f.ctx, "", dto.ReceiveLotRequest{ProductID: f.product.ID, LocationID: f.location.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stockQty(t, f.product.ID, f.location.ID))
}

func TestLotUseCase_AdjustLot(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{}
	uc := newLotUseCase(f, pub)
	lot := f.receive(t, f.product, f.location, "A", "", 9)

	resp, err := uc.AdjustLot(f.ctx, "bodeguero-1", lot.ID, dto.AdjustLotRequest{Quantity: 11, Reason: "sobrante"})
	require.NoError(t, err)
	assert.Equal(t, 11, resp.Quantity)
	assert.Equal(t, 11, f.stockQty(t, f.product.ID, f.location.ID))
	assert.Equal(t, []string{ports.EventLotAdjusted}, pub.events)

	_, err = uc.AdjustLot(f.ctx, "", lot.ID, dto.AdjustLotRequest{Quantity: -2})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

// failingProducts falla las lecturas de productos fuera de la transacción.
type failingProducts struct {
	repository.ProductRepository
}

func (failingProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, fmt.Errorf("%w: conexión perdida", domain.ErrPersistence)
}

func TestLotUseCase_AdjustLotConfirmadoNoFallaSiNoSeLeeElProducto(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, f.product, f.location, "A", "2026-03-01", 9)
	uc := inventory.NewLotUseCase(f.store, f.ledger, failingProducts{f.store.Products()},
		f.store.Locations(), f.store.Lots(), nil, nil)

	resp, err := uc.AdjustLot(f.ctx, "bodeguero-1", lot.ID, dto.AdjustLotRequest{Quantity: 4, Reason: "conteo"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Quantity)
	assert.True(t, resp.Sellable)

	adjusts := f.movementsOf(t, repository.MovementFilter{LotID: lot.ID, Kind: entity.MovementKindADJUST})
	require.Len(t, adjusts, 1)
	assert.Equal(t, -5, adjusts[0].Quantity)
	assert.Equal(t, 4, f.stockQty(t, f.product.ID, f.location.ID))
}

func TestLotUseCase_ListLotsOrdenFEFOYVendibles(t *testing.T) {
	f := newFixture(t)
	uc := newLotUseCase(f, nil)
	tarde := f.receive(t, f.product, f.location, "TARDE", "2026-09-01", 1)
	temprano := f.receive(t, f.product, f.location, "TEMPRANO", "2026-02-01", 1)
	vencido := f.receive(t, f.product, f.location, "VENCIDO", "2025-12-31", 1)

	list, err := uc.ListLots(f.ctx, dto.ListLotsQuery{ProductID: f.product.ID, LocationID: f.location.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, temprano.ID, list[0].ID)
	assert.Equal(t, tarde.ID, list[1].ID)

	list, err = uc.ListLots(f.ctx, dto.ListLotsQuery{ProductID: f.product.ID, IncludeExpired: true})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, vencido.ID, list[0].ID)
	assert.False(t, list[0].Sellable)
}
