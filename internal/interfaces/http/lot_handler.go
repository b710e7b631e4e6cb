package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// LotHandler recepción, ajuste y consulta de lotes (protegido).
type LotHandler struct {
	uc  *inventory.LotUseCase
	log *logger.Logger
}

// NewLotHandler construye el handler.
func NewLotHandler(uc *inventory.LotUseCase, log *logger.Logger) *LotHandler {
	return &LotHandler{uc: uc, log: log}
}

// Receive godoc
// @Summary      Recibir lote
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveLotRequest  true  "product_id, location_id, lot_number, expiry_date (YYYY-MM-DD), quantity, unit_cost"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	out, err := h.uc.ReceiveLot(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Adjust godoc
// @Summary      Ajustar cantidad de un lote (conteo físico)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del lote"
// @Param        body  body  dto.AdjustLotRequest   true  "quantity, reason"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/quantity [put]
func (h *LotHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	out, err := h.uc.AdjustLot(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar lotes en orden FEFO
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        product_id       query  string  false  "Producto"
// @Param        location_id      query  string  false  "Sucursal"
// @Param        include_empty    query  bool    false  "Incluir lotes en cero"
// @Param        include_expired  query  bool    false  "Incluir lotes vencidos"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	var q dto.ListLotsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	list, err := h.uc.ListLots(c.UserContext(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"lots":  list,
	})
}
