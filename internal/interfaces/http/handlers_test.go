package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/sales"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-lotes/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-lotes/pkg/jwt"
)

type apiEnv struct {
	app      *fiber.App
	product  *entity.Product
	location *entity.Location
}

func newAPI(t *testing.T, checks map[string]apphttp.HealthCheck) *apiEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	product := &entity.Product{ID: uuid.NewString(), SKU: "AMOX-500", Name: "Amoxicilina 500mg",
		Price: decimal.NewFromInt(2500), TracksExpiry: true, MinStock: 5}
	require.NoError(t, store.Products().Create(ctx, product))
	location := &entity.Location{ID: uuid.NewString(), Name: "Centro"}
	require.NoError(t, store.Locations().Create(ctx, location))

	movements := inventory.NewMovementLedger(store.Movements())
	ledger := inventory.NewLotLedger(movements)
	lotUC := inventory.NewLotUseCase(store, ledger, store.Products(), store.Locations(), store.Lots(), nil, nil)
	saleUC := sales.NewSaleUseCase(store, ledger, inventory.NewAllocator(ledger),
		store.Sales(), store.Products(), store.Locations(), store.Stock(), nil, nil, sales.Policy{RestockOnCancel: true})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		SaleUC:       saleUC,
		LotUC:        lotUC,
		Movements:    movements,
		LowStockUC:   inventory.NewLowStockUseCase(store.Stock(), store.Products(), store.Locations()),
		JWTSecret:    testJWTSecret,
		AppName:      "inventario-lotes-test",
		HealthChecks: checks,
	})
	return &apiEnv{app: app, product: product, location: location}
}

func (e *apiEnv) call(t *testing.T, method, path, role string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *apiEnv) receive(t *testing.T, qty int, expiry string) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/lots", "bodeguero", map[string]any{
		"product_id":  e.product.ID,
		"location_id": e.location.ID,
		"expiry_date": expiry,
		"quantity":    qty,
		"unit_cost":   "1000",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func (e *apiEnv) createSale(t *testing.T, qty string) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/sales", "vendedor", map[string]any{
		"location_id": e.location.ID,
		"lines":       []map[string]any{{"product_id": e.product.ID, "quantity": qty}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "PENDING", body["status"])
	return body["id"].(string)
}

func TestAPI_RecibirVenderYConsultarMovimientos(t *testing.T) {
	e := newAPI(t, nil)
	e.receive(t, 4, "2099-03-01")
	e.receive(t, 4, "2099-01-01")

	saleID := e.createSale(t, "6")
	status, body := e.call(t, http.MethodPost, "/api/sales/"+saleID+"/finalize", "vendedor", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "FINALIZED", body["status"])

	status, body = e.call(t, http.MethodGet, "/api/movements?kind=OUT&reference="+saleID, "admin", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 2, body["total"], "el lote que vence primero se agota y el resto sale del segundo")

	status, body = e.call(t, http.MethodGet, "/api/inventory/low-stock?location_id="+e.location.ID, "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["total"], "quedan 2 unidades con mínimo 5")

	status, body = e.call(t, http.MethodGet, "/api/lots?product_id="+e.product.ID, "bodeguero", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 1, body["total"], "el lote agotado no se lista sin include_empty")
}

func TestAPI_RBAC(t *testing.T) {
	e := newAPI(t, nil)

	status, body := e.call(t, http.MethodPost, "/api/lots", "vendedor", map[string]any{})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = e.call(t, http.MethodPost, "/api/sales", "bodeguero", map[string]any{})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.call(t, http.MethodGet, "/api/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_MapeoDeErrores(t *testing.T) {
	e := newAPI(t, nil)
	e.receive(t, 2, "2099-01-01")

	t.Run("stock insuficiente 409", func(t *testing.T) {
		saleID := e.createSale(t, "5")
		status, body := e.call(t, http.MethodPost, "/api/sales/"+saleID+"/finalize", "vendedor", nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	})

	t.Run("cantidad fraccionaria 400", func(t *testing.T) {
		saleID := e.createSale(t, "1.5")
		status, body := e.call(t, http.MethodPost, "/api/sales/"+saleID+"/finalize", "vendedor", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "FRACTIONAL_QUANTITY", body["code"])
	})

	t.Run("venta inexistente 404", func(t *testing.T) {
		status, body := e.call(t, http.MethodPost, "/api/sales/"+uuid.NewString()+"/finalize", "vendedor", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "SALE_NOT_FOUND", body["code"])
	})

	t.Run("finalizar anulada 409", func(t *testing.T) {
		saleID := e.createSale(t, "1")
		status, _ := e.call(t, http.MethodPost, "/api/sales/"+saleID+"/cancel", "vendedor", nil)
		require.Equal(t, http.StatusOK, status)
		status, body := e.call(t, http.MethodPost, "/api/sales/"+saleID+"/finalize", "vendedor", nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "SALE_CANCELLED", body["code"])
	})

	t.Run("cantidad con más de 4 decimales 400", func(t *testing.T) {
		status, body := e.call(t, http.MethodPost, "/api/sales", "vendedor", map[string]any{
			"location_id": e.location.ID,
			"lines":       []map[string]any{{"product_id": e.product.ID, "quantity": "0.00001"}},
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_QUANTITY", body["code"])
	})

	t.Run("lote fijado inexistente 404", func(t *testing.T) {
		for _, lotID := range []string{uuid.NewString(), "no-es-un-uuid"} {
			status, body := e.call(t, http.MethodPost, "/api/sales", "vendedor", map[string]any{
				"location_id": e.location.ID,
				"lines":       []map[string]any{{"product_id": e.product.ID, "quantity": "1", "lot_id": lotID}},
			})
			assert.Equal(t, http.StatusNotFound, status, lotID)
			assert.Equal(t, "LOT_NOT_FOUND", body["code"], lotID)
		}
	})

	t.Run("venta sin líneas 400", func(t *testing.T) {
		status, body := e.call(t, http.MethodPost, "/api/sales", "vendedor", map[string]any{"location_id": e.location.ID})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION", body["code"])
	})

	t.Run("fecha de vencimiento mal formada 400", func(t *testing.T) {
		status, body := e.call(t, http.MethodPost, "/api/lots", "bodeguero", map[string]any{
			"product_id": e.product.ID, "location_id": e.location.ID, "expiry_date": "01/02/2099", "quantity": 1,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION", body["code"])
	})

	t.Run("kind desconocido 400", func(t *testing.T) {
		status, body := e.call(t, http.MethodGet, "/api/movements?kind=TRANSFER", "admin", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION", body["code"])
	})
}

func TestAPI_PermisosPorRuta(t *testing.T) {
	e := newAPI(t, nil)
	lotID := e.receive(t, 3, "2099-01-01")
	saleID := e.createSale(t, "1")

	type ruta struct {
		method, path string
		body         any
	}
	rutas := map[string]ruta{
		"crear venta":     {http.MethodPost, "/api/sales", map[string]any{}},
		"consultar venta": {http.MethodGet, "/api/sales/" + saleID, nil},
		"finalizar venta": {http.MethodPost, "/api/sales/" + uuid.NewString() + "/finalize", nil},
		"anular venta":    {http.MethodPost, "/api/sales/" + uuid.NewString() + "/cancel", nil},
		"recibir lote":    {http.MethodPost, "/api/lots", map[string]any{}},
		"ajustar lote":    {http.MethodPut, "/api/lots/" + lotID + "/quantity", map[string]any{}},
		"listar lotes":    {http.MethodGet, "/api/lots", nil},
		"movimientos":     {http.MethodGet, "/api/movements", nil},
		"stock bajo":      {http.MethodGet, "/api/inventory/low-stock", nil},
	}
	permitidos := map[string][]string{
		"crear venta":     {"admin", "vendedor"},
		"consultar venta": {"admin", "vendedor"},
		"finalizar venta": {"admin", "vendedor"},
		"anular venta":    {"admin", "vendedor"},
		"recibir lote":    {"admin", "bodeguero"},
		"ajustar lote":    {"admin", "bodeguero"},
		"listar lotes":    {"admin", "bodeguero"},
		"movimientos":     {"admin", "bodeguero", "vendedor"},
		"stock bajo":      {"admin", "bodeguero", "vendedor"},
	}

	for nombre, r := range rutas {
		for _, role := range []string{"admin", "bodeguero", "vendedor", "contador"} {
			t.Run(nombre+"/"+role, func(t *testing.T) {
				status, body := e.call(t, r.method, r.path, role, r.body)
				if slices.Contains(permitidos[nombre], role) {
					assert.NotEqual(t, http.StatusForbidden, status, body)
					assert.NotEqual(t, http.StatusUnauthorized, status, body)
				} else {
					assert.Equal(t, http.StatusForbidden, status, body)
					assert.Equal(t, "FORBIDDEN", body["code"])
				}
			})
		}
		t.Run(nombre+"/sin token", func(t *testing.T) {
			status, _ := e.call(t, r.method, r.path, "", r.body)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestAPI_AjusteDeLote(t *testing.T) {
	e := newAPI(t, nil)
	lotID := e.receive(t, 10, "")

	status, body := e.call(t, http.MethodPut, "/api/lots/"+lotID+"/quantity", "bodeguero", map[string]any{"quantity": 7, "reason": "conteo"})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 7, body["quantity"])

	status, body = e.call(t, http.MethodPut, "/api/lots/"+lotID+"/quantity", "bodeguero", map[string]any{"quantity": -1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", body["code"])
}

func TestAPI_Health(t *testing.T) {
	ok := newAPI(t, map[string]apphttp.HealthCheck{
		"db": func(context.Context) error { return nil },
	})
	status, body := ok.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	down := newAPI(t, map[string]apphttp.HealthCheck{
		"cache": func(context.Context) error { return errors.New("sin conexión") },
	})
	status, body = down.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}
