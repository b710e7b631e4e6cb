package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y líneas sobre PostgreSQL. Create y UpdateSettlement deben correr dentro de una tx.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, location_id, status, subtotal, discount, total, created_at, updated_at, finalized_at, cancelled_at, created_by`

// Create inserta la cabecera y sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.LocationID, string(s.Status), s.Subtotal, s.Discount, s.Total,
		s.CreatedAt, s.UpdatedAt, s.FinalizedAt, s.CancelledAt, nullable(s.CreatedBy),
	)
	if err != nil {
		return wrapErr("insert sale", err)
	}
	lineQuery := `
		INSERT INTO sale_lines (id, sale_id, position, product_id, lot_id, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range s.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, s.ID, l.Position, l.ProductID, l.LotID, l.Quantity, l.UnitPrice, l.Total,
		); err != nil {
			return wrapErr("insert sale line", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas ordenadas por posición.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la venta; serializa finalizar y anular sobre la misma venta.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	if !validID(id) {
		return nil, nil
	}
	var (
		s         entity.Sale
		status    string
		createdBy *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.LocationID, &status, &s.Subtotal, &s.Discount, &s.Total,
		&s.CreatedAt, &s.UpdatedAt, &s.FinalizedAt, &s.CancelledAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sale", err)
	}
	s.Status = entity.SaleStatus(status)
	if createdBy != nil {
		s.CreatedBy = *createdBy
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, position, product_id, lot_id, quantity, unit_price, total
		FROM sale_lines WHERE sale_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, wrapErr("list sale lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.Position, &l.ProductID, &l.LotID, &l.Quantity, &l.UnitPrice, &l.Total); err != nil {
			return nil, wrapErr("scan sale line", err)
		}
		s.Lines = append(s.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list sale lines", err)
	}
	return &s, nil
}

// UpdateSettlement persiste estado, totales y fechas, y el total de cada línea.
func (r *SaleRepo) UpdateSettlement(ctx context.Context, s *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sales
		SET status = $2, subtotal = $3, discount = $4, total = $5,
		    finalized_at = $6, cancelled_at = $7, updated_at = now()
		WHERE id = $1`,
		s.ID, string(s.Status), s.Subtotal, s.Discount, s.Total, s.FinalizedAt, s.CancelledAt,
	)
	if err != nil {
		return wrapErr("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	for _, l := range s.Lines {
		if _, err := r.q.Exec(ctx, `UPDATE sale_lines SET total = $2 WHERE id = $1`, l.ID, l.Total); err != nil {
			return wrapErr("update sale line", err)
		}
	}
	return nil
}
