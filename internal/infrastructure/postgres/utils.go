package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
)

// Querier abstrae *pgxpool.Pool y pgx.Tx para que los repositorios funcionen dentro o fuera de una tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgCode devuelve el SQLSTATE del error del driver, o "" si no viene de PostgreSQL.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapErr traduce errores del driver. Los que ningún reintento puede resolver son errores de
// entrada: 23505 es ErrDuplicate; 23503 (FK), 23514 (check) y 22P02 (texto inválido) son
// ErrInvalidInput. El resto se envuelve en ErrPersistence conservando el error original para errors.As.
func wrapErr(op string, err error) error {
	switch pgCode(err) {
	case "23505":
		return domain.ErrDuplicate
	case "23503", "23514", "22P02":
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, op, err)
	}
	if strings.Contains(err.Error(), "23505") {
		return domain.ErrDuplicate
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

// validID descarta IDs que no son UUID antes de consultar columnas uuid (evita 22P02).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nullable convierte "" en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
