package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, product_id, location_id, lot_number, expiry_date, quantity, unit_cost, received_at, updated_at`

// fefoOrder mismo orden que SortFEFO; además fija el orden de adquisición de locks.
const fefoOrder = ` ORDER BY expiry_date ASC NULLS LAST, id ASC`

// Create persiste un lote. El número de lote es único por producto+sucursal (ErrDuplicate).
func (r *LotRepo) Create(ctx context.Context, l *entity.Lot) error {
	query := `INSERT INTO lots (` + lotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.ProductID, l.LocationID, l.LotNumber, l.ExpiryDate, l.Quantity, l.UnitCost, l.ReceivedAt, l.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert lot", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetForUpdate obtiene un lote y bloquea su fila.
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

func (r *LotRepo) getOne(ctx context.Context, query, id string) (*entity.Lot, error) {
	if !validID(id) {
		return nil, nil
	}
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get lot", err)
	}
	return l, nil
}

// ListCandidatesForUpdate lotes con saldo del producto en la sucursal, bloqueados en orden FEFO.
func (r *LotRepo) ListCandidatesForUpdate(ctx context.Context, productID, locationID string) ([]*entity.Lot, error) {
	if !validID(productID) || !validID(locationID) {
		return []*entity.Lot{}, nil
	}
	query := `SELECT ` + lotColumns + ` FROM lots
		WHERE product_id = $1 AND location_id = $2 AND quantity > 0` + fefoOrder + ` FOR UPDATE`
	return r.list(ctx, query, productID, locationID)
}

// List lotes según filtro, en orden FEFO.
func (r *LotRepo) List(ctx context.Context, f repository.LotFilter) ([]*entity.Lot, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 2)
	if f.ProductID != "" {
		if !validID(f.ProductID) {
			return []*entity.Lot{}, nil
		}
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.LocationID != "" {
		if !validID(f.LocationID) {
			return []*entity.Lot{}, nil
		}
		args = append(args, f.LocationID)
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if !f.IncludeEmpty {
		where = append(where, "quantity > 0")
	}
	query := `SELECT ` + lotColumns + ` FROM lots`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return r.list(ctx, query+fefoOrder, args...)
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list lots", err)
	}
	defer rows.Close()
	out := make([]*entity.Lot, 0)
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, wrapErr("scan lot", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list lots", err)
	}
	return out, nil
}

// UpdateQuantity fija la cantidad del lote. El CHECK de la tabla impide negativos.
func (r *LotRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	tag, err := r.q.Exec(ctx, `UPDATE lots SET quantity = $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return wrapErr("update lot quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	if err := row.Scan(
		&l.ID, &l.ProductID, &l.LocationID, &l.LotNumber, &l.ExpiryDate,
		&l.Quantity, &l.UnitCost, &l.ReceivedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}
