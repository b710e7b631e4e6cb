package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
)

// hoy fecha fija de los tests.
var hoy = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	movements *inventory.MovementLedger
	ledger    *inventory.LotLedger
	allocator *inventory.Allocator
	product   *entity.Product
	location  *entity.Location
	other     *entity.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	movements := inventory.NewMovementLedger(store.Movements())
	ledger := inventory.NewLotLedger(movements)
	ledger.SetClock(func() time.Time { return hoy })

	f := &fixture{
		ctx:       ctx,
		store:     store,
		movements: movements,
		ledger:    ledger,
		allocator: inventory.NewAllocator(ledger),
	}
	f.product = f.newProduct(t, "AMOX-500", true, false)
	f.location = f.newLocation(t, "Sucursal Centro")
	f.other = f.newLocation(t, "Sucursal Norte")
	return f
}

func (f *fixture) newProduct(t *testing.T, sku string, tracksExpiry, allowExpired bool) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:                   uuid.Must(uuid.NewV7()).String(),
		SKU:                  sku,
		Name:                 "Producto " + sku,
		Price:                decimal.NewFromInt(1000),
		TracksExpiry:         tracksExpiry,
		AllowSaleWhenExpired: allowExpired,
		MinStock:             5,
		CreatedAt:            hoy,
		UpdatedAt:            hoy,
	}
	require.NoError(t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *fixture) newLocation(t *testing.T, name string) *entity.Location {
	t.Helper()
	l := &entity.Location{ID: uuid.Must(uuid.NewV7()).String(), Name: name, CreatedAt: hoy, UpdatedAt: hoy}
	require.NoError(t, f.store.Locations().Create(f.ctx, l))
	return l
}

// receive recibe un lote; expiry vacío = sin vencimiento.
func (f *fixture) receive(t *testing.T, product *entity.Product, location *entity.Location, number, expiry string, qty int) *entity.Lot {
	t.Helper()
	var exp *time.Time
	if expiry != "" {
		d, err := time.Parse(time.DateOnly, expiry)
		require.NoError(t, err)
		exp = &d
	}
	var lot *entity.Lot
	err := f.store.Run(f.ctx, func(repos inventory.TxRepos) error {
		var err error
		lot, err = f.ledger.Receive(f.ctx, repos, inventory.ReceiveInput{
			ProductID:  product.ID,
			LocationID: location.ID,
			LotNumber:  number,
			ExpiryDate: exp,
			Quantity:   qty,
			UnitCost:   decimal.NewFromInt(400),
			UserID:     "bodeguero-1",
		})
		return err
	})
	require.NoError(t, err)
	return lot
}

func (f *fixture) allocate(req inventory.AllocationRequest) ([]inventory.Allocation, error) {
	var out []inventory.Allocation
	err := f.store.Run(f.ctx, func(repos inventory.TxRepos) error {
		var err error
		out, err = f.allocator.AllocateInTx(f.ctx, repos, nil, req)
		return err
	})
	return out, err
}

func (f *fixture) lotQty(t *testing.T, id string) int {
	t.Helper()
	l, err := f.store.Lots().GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l.Quantity
}

func (f *fixture) stockQty(t *testing.T, productID, locationID string) int {
	t.Helper()
	s, err := f.store.Stock().Get(f.ctx, productID, locationID)
	require.NoError(t, err)
	return s.Quantity
}

func (f *fixture) movementsOf(t *testing.T, filter repository.MovementFilter) []*entity.StockMovement {
	t.Helper()
	list, err := f.store.Movements().List(f.ctx, filter)
	require.NoError(t, err)
	return list
}

// requireStockMatchesLots verifica que el agregado sea la suma de los lotes.
func (f *fixture) requireStockMatchesLots(t *testing.T, productID, locationID string) {
	t.Helper()
	lots, err := f.store.Lots().List(f.ctx, repository.LotFilter{ProductID: productID, LocationID: locationID, IncludeEmpty: true})
	require.NoError(t, err)
	sum := 0
	for _, l := range lots {
		sum += l.Quantity
	}
	require.Equal(t, sum, f.stockQty(t, productID, locationID), "stock agregado debe ser la suma de los lotes")
}
