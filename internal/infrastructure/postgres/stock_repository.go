package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock agregado de un producto en una sucursal.
func (r *StockRepo) Get(ctx context.Context, productID, locationID string) (*entity.Stock, error) {
	return r.get(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock WHERE product_id = $1 AND location_id = $2`, productID, locationID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
// Si la fila no existe la crea en cero, para que dos primeras recepciones concurrentes se serialicen.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.Stock, error) {
	if validID(productID) && validID(locationID) {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO stock (product_id, location_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (product_id, location_id) DO NOTHING`, productID, locationID); err != nil {
			return nil, wrapErr("ensure stock row", err)
		}
	}
	return r.get(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`, productID, locationID)
}

func (r *StockRepo) get(ctx context.Context, query, productID, locationID string) (*entity.Stock, error) {
	empty := &entity.Stock{ProductID: productID, LocationID: locationID}
	if !validID(productID) || !validID(locationID) {
		return empty, nil
	}
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return empty, nil
		}
		return nil, wrapErr("get stock", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y sucursal).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, stock.ProductID, stock.LocationID, stock.Quantity); err != nil {
		return wrapErr("upsert stock", err)
	}
	return nil
}

// ListByLocation lista el stock agregado de todos los productos de una sucursal.
func (r *StockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.Stock, error) {
	out := make([]*entity.Stock, 0)
	if !validID(locationID) {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock WHERE location_id = $1 ORDER BY product_id`, locationID)
	if err != nil {
		return nil, wrapErr("list stock", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, wrapErr("scan stock", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list stock", err)
	}
	return out, nil
}
