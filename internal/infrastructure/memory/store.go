package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type stockKey struct {
	productID  string
	locationID string
}

// state datos del store. Se clona completo al abrir una transacción.
type state struct {
	products  map[string]entity.Product
	locations map[string]entity.Location
	lots      map[string]entity.Lot
	stock     map[stockKey]entity.Stock
	movements []entity.StockMovement
	sales     map[string]entity.Sale
}

func newState() *state {
	return &state{
		products:  make(map[string]entity.Product),
		locations: make(map[string]entity.Location),
		lots:      make(map[string]entity.Lot),
		stock:     make(map[stockKey]entity.Stock),
		sales:     make(map[string]entity.Sale),
	}
}

func (s *state) clone() *state {
	return &state{
		products:  maps.Clone(s.products),
		locations: maps.Clone(s.locations),
		lots:      maps.Clone(s.lots),
		stock:     maps.Clone(s.stock),
		movements: append([]entity.StockMovement(nil), s.movements...),
		sales:     maps.Clone(s.sales),
	}
}

// Store implementación en memoria de todos los repositorios y del TxRunner.
// Las transacciones se serializan con txMu y trabajan sobre una copia del estado:
// si fn falla la copia se descarta, si no reemplaza al estado vigente.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios atados a una copia del estado y la aplica si fn retorna nil.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	if err := fn(bind(&view{st: snapshot})); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
	return nil
}

// Repos repositorios fuera de transacción (lecturas y altas de catálogo).
func (s *Store) Repos() inventory.TxRepos {
	return bind(&view{store: s})
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepository { return &ProductRepository{v: &view{store: s}} }

// Locations repositorio de sucursales fuera de transacción.
func (s *Store) Locations() *LocationRepository { return &LocationRepository{v: &view{store: s}} }

// Lots repositorio de lotes fuera de transacción.
func (s *Store) Lots() *LotRepository { return &LotRepository{v: &view{store: s}} }

// Stock repositorio de stock agregado fuera de transacción.
func (s *Store) Stock() *StockRepository { return &StockRepository{v: &view{store: s}} }

// Movements libro de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{v: &view{store: s}} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() *SaleRepository { return &SaleRepository{v: &view{store: s}} }

func bind(v *view) inventory.TxRepos {
	return inventory.TxRepos{
		Lots:      &LotRepository{v: v},
		Stock:     &StockRepository{v: v},
		Movements: &MovementRepository{v: v},
		Sales:     &SaleRepository{v: v},
		Products:  &ProductRepository{v: v},
	}
}

// view acceso al estado: dentro de una tx usa la copia sin locks; fuera, el estado vigente con locks.
type view struct {
	store *Store
	st    *state
}

func (v *view) read(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

func (v *view) write(fn func(st *state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	// Escrituras sueltas esperan a que termine cualquier tx en curso.
	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}
