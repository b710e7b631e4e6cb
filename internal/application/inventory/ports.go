package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Lots      repository.LotRepository
	Stock     repository.StockRepository
	Movements repository.StockMovementRepository
	Sales     repository.SaleRepository
	Products  repository.ProductRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback ante cualquier error. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
