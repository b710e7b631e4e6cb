package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    string
		private bool
	}{
		{fmt.Errorf("línea 2: %w", domain.ErrInsufficientStock), fiber.StatusConflict, "INSUFFICIENT_STOCK", false},
		{fmt.Errorf("línea 1: %w", domain.ErrFractionalQuantity), fiber.StatusBadRequest, "FRACTIONAL_QUANTITY", false},
		{domain.ErrLotLocationMismatch, fiber.StatusBadRequest, "LOT_LOCATION_MISMATCH", false},
		{domain.ErrCannotCancelFinalized, fiber.StatusConflict, "SALE_FINALIZED", false},
		{fmt.Errorf("producto: %w", domain.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND", false},
		{fmt.Errorf("%w: commit transaction: %w", domain.ErrPersistence, errors.New("deadlock detected")), fiber.StatusServiceUnavailable, "PERSISTENCE", true},
		{errors.New("algo inesperado"), fiber.StatusInternalServerError, "INTERNAL", true},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return writeError(c, logger.Nop(), tc.err) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			if tc.private {
				assert.NotContains(t, body.Message, tc.err.Error(), "los 5xx no exponen el detalle interno")
			} else {
				assert.Equal(t, tc.err.Error(), body.Message)
			}
		})
	}
}
