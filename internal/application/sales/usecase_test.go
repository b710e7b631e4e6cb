package sales_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/sales"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

func TestCreateSale_UsaPrecioDelProductoYCalculaTotales(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	l := line(e.product, "2")
	conPrecio := line(e.second, "1")
	conPrecio.UnitPrice = decimal.NewFromInt(1200)

	sale, err := e.uc.CreateSale(e.ctx, "vendedor-1", dto.CreateSaleRequest{
		LocationID: e.location.ID,
		Discount:   decimal.NewFromInt(200),
		Lines:      []dto.CreateSaleLineRequest{l, conPrecio},
	})
	require.NoError(t, err)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, 1, sale.Lines[0].Position)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(decimal.NewFromInt(2500)))
	assert.True(t, sale.Subtotal.Equal(decimal.NewFromInt(6200)), "subtotal %s", sale.Subtotal)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(6000)), "total %s", sale.Total)

	got, err := e.uc.GetSale(e.ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)
	assert.Len(t, got.Lines, 2)
}

func TestCreateSale_Validaciones(t *testing.T) {
	e := newEnv(t, sales.Policy{})

	cases := []struct {
		nombre string
		req    dto.CreateSaleRequest
		err    error
	}{
		{"sin líneas", dto.CreateSaleRequest{LocationID: e.location.ID}, domain.ErrInvalidInput},
		{"sucursal inexistente", dto.CreateSaleRequest{LocationID: "x", Lines: []dto.CreateSaleLineRequest{line(e.product, "1")}}, domain.ErrNotFound},
		{"producto inexistente", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{{ProductID: "x", Quantity: decimal.NewFromInt(1)}}}, domain.ErrNotFound},
		{"cantidad cero", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{line(e.product, "0")}}, domain.ErrInvalidQuantity},
		{"descuento negativo", dto.CreateSaleRequest{LocationID: e.location.ID, Discount: decimal.NewFromInt(-1), Lines: []dto.CreateSaleLineRequest{line(e.product, "1")}}, domain.ErrInvalidInput},
		{"más de 4 decimales", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{line(e.product, "1.00001")}}, domain.ErrInvalidQuantity},
		{"cantidad que se redondearía a cero", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{line(e.product, "0.00001")}}, domain.ErrInvalidQuantity},
		{"lote fijado con id no uuid", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{pinnedLine(e.product, "1", "no-es-un-uuid")}}, domain.ErrLotNotFound},
		{"lote fijado inexistente", dto.CreateSaleRequest{LocationID: e.location.ID, Lines: []dto.CreateSaleLineRequest{pinnedLine(e.product, "1", uuid.NewString())}}, domain.ErrLotNotFound},
		{"descuento mayor al subtotal", dto.CreateSaleRequest{LocationID: e.location.ID, Discount: decimal.NewFromInt(99999), Lines: []dto.CreateSaleLineRequest{line(e.product, "1")}}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := e.uc.CreateSale(e.ctx, "", tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCreateSale_CuatroDecimalesSeAceptan(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	sale, err := e.uc.CreateSale(e.ctx, "", dto.CreateSaleRequest{
		LocationID: e.location.ID,
		Lines:      []dto.CreateSaleLineRequest{line(e.product, "1.2500")},
	})
	require.NoError(t, err)
	assert.True(t, sale.Lines[0].Quantity.Equal(decimal.RequireFromString("1.25")))
}

func TestCreateSale_LoteFijadoInexistenteIndicaLaLinea(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	lot := e.receive(t, e.product, e.location, "L-1", "2099-01-01", 5)

	_, err := e.uc.CreateSale(e.ctx, "", dto.CreateSaleRequest{
		LocationID: e.location.ID,
		Lines: []dto.CreateSaleLineRequest{
			pinnedLine(e.product, "1", lot.ID),
			pinnedLine(e.product, "1", uuid.NewString()),
		},
	})
	require.ErrorIs(t, err, domain.ErrLotNotFound)
	assert.Contains(t, err.Error(), "línea 2")
}

func pinnedLine(product *entity.Product, qty, lotID string) dto.CreateSaleLineRequest {
	l := line(product, qty)
	l.LotID = lotID
	return l
}

func TestGetSale_Inexistente(t *testing.T) {
	e := newEnv(t, sales.Policy{})
	_, err := e.uc.GetSale(e.ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}
