package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*ProductRepository)(nil)
	_ repository.LocationRepository      = (*LocationRepository)(nil)
	_ repository.LotRepository           = (*LotRepository)(nil)
	_ repository.StockRepository         = (*StockRepository)(nil)
	_ repository.StockMovementRepository = (*MovementRepository)(nil)
	_ repository.SaleRepository          = (*SaleRepository)(nil)
)

// ── Productos ────────────────────────────────────────────────────────────────

// ProductRepository catálogo en memoria.
type ProductRepository struct{ v *view }

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.products {
			if strings.EqualFold(other.SKU, p.SKU) {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.read(func(st *state) error {
		for _, p := range st.products {
			if strings.EqualFold(p.SKU, sku) {
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	return r.v.write(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return domain.ErrNotFound
		}
		p.Cost = cost
		p.UpdatedAt = time.Now()
		st.products[productID] = p
		return nil
	})
}

// ── Sucursales ───────────────────────────────────────────────────────────────

// LocationRepository registro de sucursales en memoria.
type LocationRepository struct{ v *view }

func (r *LocationRepository) Create(_ context.Context, l *entity.Location) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.locations[l.ID]; ok {
			return domain.ErrDuplicate
		}
		st.locations[l.ID] = *l
		return nil
	})
}

func (r *LocationRepository) GetByID(_ context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	err := r.v.read(func(st *state) error {
		if l, ok := st.locations[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

// ── Lotes ────────────────────────────────────────────────────────────────────

// LotRepository lotes en memoria. Los "FOR UPDATE" no bloquean nada: la tx ya es exclusiva.
type LotRepository struct{ v *view }

func (r *LotRepository) Create(_ context.Context, lot *entity.Lot) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.lots[lot.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.lots {
			if other.ProductID == lot.ProductID && other.LocationID == lot.LocationID && other.LotNumber == lot.LotNumber {
				return domain.ErrDuplicate
			}
		}
		st.lots[lot.ID] = cloneLot(*lot)
		return nil
	})
}

func (r *LotRepository) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	var out *entity.Lot
	err := r.v.read(func(st *state) error {
		if l, ok := st.lots[id]; ok {
			c := cloneLot(l)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *LotRepository) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *LotRepository) ListCandidatesForUpdate(_ context.Context, productID, locationID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	err := r.v.read(func(st *state) error {
		out = collectLots(st, func(l entity.Lot) bool {
			return l.ProductID == productID && l.LocationID == locationID && l.Quantity > 0
		})
		return nil
	})
	return out, err
}

func (r *LotRepository) List(_ context.Context, f repository.LotFilter) ([]*entity.Lot, error) {
	var out []*entity.Lot
	err := r.v.read(func(st *state) error {
		out = collectLots(st, func(l entity.Lot) bool {
			if f.ProductID != "" && l.ProductID != f.ProductID {
				return false
			}
			if f.LocationID != "" && l.LocationID != f.LocationID {
				return false
			}
			return f.IncludeEmpty || l.Quantity > 0
		})
		return nil
	})
	return out, err
}

func (r *LotRepository) UpdateQuantity(_ context.Context, id string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return r.v.write(func(st *state) error {
		l, ok := st.lots[id]
		if !ok {
			return domain.ErrLotNotFound
		}
		l.Quantity = quantity
		l.UpdatedAt = time.Now()
		st.lots[id] = l
		return nil
	})
}

// collectLots lotes que cumplen keep, ordenados por ID (orden de inserción).
func collectLots(st *state, keep func(entity.Lot) bool) []*entity.Lot {
	out := make([]*entity.Lot, 0)
	for _, l := range st.lots {
		if keep(l) {
			c := cloneLot(l)
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Lot) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func cloneLot(l entity.Lot) entity.Lot {
	if l.ExpiryDate != nil {
		d := *l.ExpiryDate
		l.ExpiryDate = &d
	}
	return l
}

// ── Stock agregado ───────────────────────────────────────────────────────────

// StockRepository agregado producto+sucursal en memoria.
type StockRepository struct{ v *view }

func (r *StockRepository) Get(_ context.Context, productID, locationID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.v.read(func(st *state) error {
		s, ok := st.stock[stockKey{productID, locationID}]
		if !ok {
			s = entity.Stock{ProductID: productID, LocationID: locationID}
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *StockRepository) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.Stock, error) {
	return r.Get(ctx, productID, locationID)
}

func (r *StockRepository) Upsert(_ context.Context, s *entity.Stock) error {
	if s.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	return r.v.write(func(st *state) error {
		st.stock[stockKey{s.ProductID, s.LocationID}] = *s
		return nil
	})
}

func (r *StockRepository) ListByLocation(_ context.Context, locationID string) ([]*entity.Stock, error) {
	out := make([]*entity.Stock, 0)
	err := r.v.read(func(st *state) error {
		for k, s := range st.stock {
			if k.locationID == locationID {
				c := s
				out = append(out, &c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *entity.Stock) int { return strings.Compare(a.ProductID, b.ProductID) })
	return out, err
}

// ── Movimientos ──────────────────────────────────────────────────────────────

// MovementRepository libro de movimientos en memoria (solo append).
type MovementRepository struct{ v *view }

func (r *MovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	return r.v.write(func(st *state) error {
		st.movements = append(st.movements, cloneMovement(*m))
		return nil
	})
}

func (r *MovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	out := make([]*entity.StockMovement, 0)
	err := r.v.read(func(st *state) error {
		skipped := 0
		for _, m := range st.movements {
			if !matchMovement(m, f) {
				continue
			}
			if skipped < f.Offset {
				skipped++
				continue
			}
			if f.Limit > 0 && len(out) >= f.Limit {
				break
			}
			c := cloneMovement(m)
			out = append(out, &c)
		}
		return nil
	})
	return out, err
}

func matchMovement(m entity.StockMovement, f repository.MovementFilter) bool {
	switch {
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.LocationID != "" && m.LocationID != f.LocationID:
		return false
	case f.LotID != "" && (m.LotID == nil || *m.LotID != f.LotID):
		return false
	case f.Reference != "" && m.Reference != f.Reference:
		return false
	case f.Kind != "" && m.Kind != f.Kind:
		return false
	}
	return true
}

func cloneMovement(m entity.StockMovement) entity.StockMovement {
	if m.LotID != nil {
		id := *m.LotID
		m.LotID = &id
	}
	return m
}

// ── Ventas ───────────────────────────────────────────────────────────────────

// SaleRepository ventas en memoria.
type SaleRepository struct{ v *view }

func (r *SaleRepository) Create(_ context.Context, s *entity.Sale) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sales[s.ID] = cloneSale(*s)
		return nil
	})
}

func (r *SaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.v.read(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			c := cloneSale(s)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepository) UpdateSettlement(_ context.Context, s *entity.Sale) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sales[s.ID]; !ok {
			return domain.ErrSaleNotFound
		}
		st.sales[s.ID] = cloneSale(*s)
		return nil
	})
}

func cloneSale(s entity.Sale) entity.Sale {
	lines := make([]entity.SaleLine, len(s.Lines))
	for i, l := range s.Lines {
		if l.LotID != nil {
			id := *l.LotID
			l.LotID = &id
		}
		lines[i] = l
	}
	slices.SortStableFunc(lines, func(a, b entity.SaleLine) int { return a.Position - b.Position })
	s.Lines = lines
	return s
}
