package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Lotes y asignación.
	ErrInvalidQuantity     = errors.New("cantidad inválida")
	ErrFractionalQuantity  = errors.New("cantidad fraccionaria no soportada para asignación por lotes")
	ErrLotNotFound         = errors.New("lote no encontrado")
	ErrLotProductMismatch  = errors.New("el lote no pertenece al producto de la línea")
	ErrLotLocationMismatch = errors.New("el lote no pertenece a la sucursal de la venta")
	ErrInsufficientStock   = errors.New("stock insuficiente")

	// Máquina de estados de la venta.
	ErrSaleNotFound            = errors.New("venta no encontrada")
	ErrCannotFinalizeCancelled = errors.New("no se puede finalizar una venta anulada")
	ErrCannotCancelFinalized   = errors.New("no se puede anular una venta finalizada")

	// ErrPersistence envuelve fallas de infraestructura (bloqueos, timeouts, conexión).
	// El caller decide si reintenta; el núcleo nunca reintenta.
	ErrPersistence = errors.New("error de persistencia")
)
