package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// InventoryHandler consultas del libro de movimientos y stock bajo (protegido).
type InventoryHandler struct {
	movements *inventory.MovementLedger
	lowStock  *inventory.LowStockUseCase
	log       *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements *inventory.MovementLedger, lowStock *inventory.LowStockUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{movements: movements, lowStock: lowStock, log: log}
}

// ListMovements godoc
// @Summary      Consultar movimientos de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Sucursal"
// @Param        lot_id       query  string  false  "Lote"
// @Param        reference    query  string  false  "Referencia (ID de venta)"
// @Param        kind         query  string  false  "IN | OUT | ADJUST"
// @Param        limit        query  int     false  "Máximo 500 (defecto 100)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.ListMovementsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := validateStruct(c, q); !ok {
		return err
	}
	list, err := h.movements.ListMovements(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"movements": list,
	})
}

// GetLowStock godoc
// @Summary      Productos en o bajo su stock mínimo
// @Description  Cantidad sugerida = MinStock * 1.5 - stock actual; ordenado por déficit.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  true  "Sucursal (UUID)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	list, err := h.lowStock.LowStock(c.UserContext(), c.Query("location_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"low_stock": list,
	})
}
