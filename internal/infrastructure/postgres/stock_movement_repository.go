package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL. Un trigger rechaza UPDATE y DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, location_id, lot_id, kind, quantity, quantity_before, reason, reference, created_at, created_by`

// Create agrega un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.LocationID, m.LotID, string(m.Kind), m.Quantity, m.QuantityBefore,
		m.Reason, m.Reference, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return wrapErr("insert stock movement", err)
	}
	return nil
}

// List consulta el libro en orden de escritura. Limit 0 = sin límite.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 7)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	for _, id := range []struct {
		col, val string
	}{{"product_id", f.ProductID}, {"location_id", f.LocationID}, {"lot_id", f.LotID}} {
		if id.val == "" {
			continue
		}
		if !validID(id.val) {
			return []*entity.StockMovement{}, nil
		}
		add(id.col+" = $%d", id.val)
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.Kind != "" {
		add("kind = $%d", string(f.Kind))
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	defer rows.Close()
	out := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var (
			m    entity.StockMovement
			kind string
		)
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.LocationID, &m.LotID, &kind, &m.Quantity, &m.QuantityBefore,
			&m.Reason, &m.Reference, &m.CreatedAt, &m.CreatedBy,
		); err != nil {
			return nil, wrapErr("scan stock movement", err)
		}
		m.Kind = entity.MovementKind(kind)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list stock movements", err)
	}
	return out, nil
}
