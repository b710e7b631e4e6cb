package inventory

import (
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// IsSellable es la compuerta de vencimiento: un lote vencido solo se excluye cuando el producto
// controla vencimiento y no permite la venta de vencidos. No muta nada.
func IsSellable(lot *entity.Lot, product *entity.Product, asOf time.Time) bool {
	if lot == nil {
		return false
	}
	if product == nil || !product.TracksExpiry || product.AllowSaleWhenExpired {
		return true
	}
	return !lot.ExpiresBefore(asOf)
}

// FilterSellable devuelve los lotes que pasan la compuerta, conservando el orden.
func FilterSellable(lots []*entity.Lot, product *entity.Product, asOf time.Time) []*entity.Lot {
	out := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if IsSellable(l, product, asOf) {
			out = append(out, l)
		}
	}
	return out
}
