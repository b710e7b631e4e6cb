package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

type importEnv struct {
	store    *memory.Store
	lotUC    *inventory.LotUseCase
	location *entity.Location
}

func newImportEnv(t *testing.T) *importEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: uuid.NewString(), SKU: "AMOX-500", Name: "Amoxicilina", TracksExpiry: true}))
	loc := &entity.Location{ID: uuid.NewString(), Name: "Centro"}
	require.NoError(t, store.Locations().Create(ctx, loc))

	ledger := inventory.NewLotLedger(inventory.NewMovementLedger(store.Movements()))
	lotUC := inventory.NewLotUseCase(store, ledger, store.Products(), store.Locations(), store.Lots(), nil, nil)
	return &importEnv{store: store, lotUC: lotUC, location: loc}
}

func (e *importEnv) importer(sep rune, latin1 bool) *importer {
	return &importer{products: e.store.Products(), lots: e.lotUC, userID: "import", sep: sep, latin1: latin1, log: logger.Nop()}
}

func TestImporter_FilasValidasEInvalidas(t *testing.T) {
	e := newImportEnv(t)
	csv := strings.Join([]string{
		"sku,location_id,lot_number,expiry,quantity,unit_cost",
		"AMOX-500," + e.location.ID + ",L-001,2099-01-31,10,1200.50",
		"amox-500," + e.location.ID + ",,,5,",
		"NOEXISTE," + e.location.ID + ",L-002,2099-01-31,3,100",
		"AMOX-500," + e.location.ID + ",L-003,2099-01-31,cero,100",
		"AMOX-500," + e.location.ID + ",L-004,2099-01-31,0,100",
	}, "\n")

	res, err := e.importer(',', false).Run(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Failed, 3)
	assert.Equal(t, 4, res.Failed[0].Line)
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrNotFound)
	assert.ErrorIs(t, res.Failed[1].Err, domain.ErrInvalidQuantity)
	assert.ErrorIs(t, res.Failed[2].Err, domain.ErrInvalidQuantity)

	lots, err := e.lotUC.ListLots(context.Background(), dto.ListLotsQuery{LocationID: e.location.ID, IncludeExpired: true})
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "L-001", lots[0].LotNumber, "con vencimiento va antes que el lote sin fecha")
	assert.True(t, decimal.RequireFromString("1200.5").Equal(lots[0].UnitCost))
	assert.Nil(t, lots[1].ExpiryDate)
}

func TestImporter_Latin1YPuntoYComa(t *testing.T) {
	e := newImportEnv(t)
	content := "AMOX-500;" + e.location.ID + ";AÑO-Ñ1;2099-06-30;4;1250,75\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(content))
	require.NoError(t, err)

	res, err := e.importer(';', true).Run(context.Background(), bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported, res.Failed)

	lots, err := e.lotUC.ListLots(context.Background(), dto.ListLotsQuery{LocationID: e.location.ID})
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "AÑO-Ñ1", lots[0].LotNumber)
	assert.True(t, decimal.RequireFromString("1250.75").Equal(lots[0].UnitCost))
}

func TestImporter_ColumnasInsuficientes(t *testing.T) {
	e := newImportEnv(t)
	res, err := e.importer(',', false).Run(context.Background(), strings.NewReader("AMOX-500,"+e.location.ID+"\n"))
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrInvalidInput)
}

type failingFinder struct{}

func (failingFinder) GetBySKU(context.Context, string) (*entity.Product, error) {
	return nil, errors.Join(domain.ErrPersistence, errors.New("conexión rechazada"))
}

func TestImporter_PersistenciaAbortaLaImportacion(t *testing.T) {
	e := newImportEnv(t)
	im := e.importer(',', false)
	im.products = failingFinder{}

	_, err := im.Run(context.Background(), strings.NewReader("AMOX-500,"+e.location.ID+",L-1,,1,1\nAMOX-500,"+e.location.ID+",L-2,,1,1\n"))
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
