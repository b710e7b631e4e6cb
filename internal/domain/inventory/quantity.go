package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// WholeQuantity reduce una cantidad de venta a entero. La asignación por lotes no reparte fracciones:
// 1.5 es un error de validación, no un redondeo.
func WholeQuantity(q decimal.Decimal) (int, error) {
	if q.IsNegative() {
		return 0, domain.ErrInvalidQuantity
	}
	if !q.Equal(q.Truncate(0)) {
		return 0, domain.ErrFractionalQuantity
	}
	if q.GreaterThan(decimal.NewFromInt(maxAllocatable)) {
		return 0, domain.ErrInvalidQuantity
	}
	return int(q.IntPart()), nil
}

// maxAllocatable cota superior de una línea; las cantidades de lote son int4 en la base.
const maxAllocatable = 1<<31 - 1
