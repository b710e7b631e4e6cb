package inventory

import "github.com/shopspring/decimal"

// WeightedCost recalcula el costo promedio ponderado de un producto al recibir un lote:
//
//	(existencias * costoActual + recibidas * costoLote) / (existencias + recibidas)
//
// Existencias negativas cuentan como cero. Si no se recibe nada el costo no cambia.
func WeightedCost(onHand int, currentCost decimal.Decimal, received int, receivedCost decimal.Decimal) decimal.Decimal {
	if received <= 0 {
		return currentCost
	}
	onHand = max(onHand, 0)
	held := decimal.NewFromInt(int64(onHand))
	in := decimal.NewFromInt(int64(received))
	return held.Mul(currentCost).Add(in.Mul(receivedCost)).Div(held.Add(in)).Round(4)
}
