package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 500
)

// MovementInput datos de un movimiento a registrar.
type MovementInput struct {
	ProductID      string
	LocationID     string
	LotID          *string
	Kind           entity.MovementKind
	Quantity       int
	QuantityBefore int
	Reason         string
	Reference      string
	UserID         string
	At             time.Time
}

// MovementLedger libro de movimientos de solo inserción. No expone update ni delete.
type MovementLedger struct {
	repo repository.StockMovementRepository
}

// NewMovementLedger construye el libro. repo se usa solo para consultas fuera de transacción.
func NewMovementLedger(repo repository.StockMovementRepository) *MovementLedger {
	return &MovementLedger{repo: repo}
}

// Record agrega un movimiento usando el repositorio de la transacción del caller.
func (m *MovementLedger) Record(ctx context.Context, repo repository.StockMovementRepository, in MovementInput) (*entity.StockMovement, error) {
	if !in.Kind.Valid() || in.ProductID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	mov := &entity.StockMovement{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		LotID:          in.LotID,
		Kind:           in.Kind,
		Quantity:       in.Quantity,
		QuantityBefore: in.QuantityBefore,
		Reason:         in.Reason,
		Reference:      in.Reference,
		CreatedAt:      at,
		CreatedBy:      in.UserID,
	}
	if err := repo.Create(ctx, mov); err != nil {
		return nil, fmt.Errorf("registrar movimiento: %w", err)
	}
	return mov, nil
}

// ListMovements consulta el libro con filtros tipados (reportes y exportación).
func (m *MovementLedger) ListMovements(ctx context.Context, q dto.ListMovementsQuery) ([]dto.MovementResponse, error) {
	kind := entity.MovementKind(q.Kind)
	if q.Kind != "" && !kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if q.Offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	list, err := m.repo.List(ctx, repository.MovementFilter{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		LotID:      q.LotID,
		Reference:  q.Reference,
		Kind:       kind,
		Limit:      limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, mv := range list {
		out = append(out, toMovementResponse(mv))
	}
	return out, nil
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		LocationID:     m.LocationID,
		LotID:          m.LotID,
		Kind:           string(m.Kind),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		Reason:         m.Reason,
		Reference:      m.Reference,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}
