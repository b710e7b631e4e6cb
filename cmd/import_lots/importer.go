package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// Columnas: sku,location_id,lot_number,expiry,quantity,unit_cost
const minColumns = 5

type lotReceiver interface {
	ReceiveLot(ctx context.Context, userID string, in dto.ReceiveLotRequest) (*dto.LotResponse, error)
}

type productFinder interface {
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
}

type importer struct {
	products productFinder
	lots     lotReceiver
	userID   string
	sep      rune
	latin1   bool
	log      *logger.Logger
}

type rowError struct {
	Line int
	Err  error
}

type importResult struct {
	Imported int
	Failed   []rowError
}

// Run procesa el CSV fila por fila. Una fila inválida no detiene la importación;
// solo los errores de lectura del archivo o de persistencia la abortan.
func (im *importer) Run(ctx context.Context, r io.Reader) (importResult, error) {
	if im.latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = im.sep
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var res importResult
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("leer línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")), "sku") {
			continue
		}

		lot, err := im.importRow(ctx, rec)
		if err != nil {
			if errors.Is(err, domain.ErrPersistence) {
				return res, fmt.Errorf("línea %d: %w", line, err)
			}
			im.log.Warn().Err(err).Int("line", line).Msg("fila rechazada")
			res.Failed = append(res.Failed, rowError{Line: line, Err: err})
			continue
		}
		im.log.Debug().Int("line", line).Str("lot_id", lot.ID).Str("lot_number", lot.LotNumber).Msg("lote recibido")
		res.Imported++
	}
	return res, nil
}

func (im *importer) importRow(ctx context.Context, rec []string) (*dto.LotResponse, error) {
	if len(rec) < minColumns {
		return nil, fmt.Errorf("%w: se esperaban al menos %d columnas, hay %d", domain.ErrInvalidInput, minColumns, len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	sku, locationID, lotNumber, expiry := rec[0], rec[1], rec[2], rec[3]

	qty, err := strconv.Atoi(rec[4])
	if err != nil {
		return nil, fmt.Errorf("%w: cantidad %q", domain.ErrInvalidQuantity, rec[4])
	}
	cost := decimal.Zero
	if len(rec) > minColumns && rec[5] != "" {
		raw := rec[5]
		if im.sep != ',' {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
		cost, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: costo %q", domain.ErrInvalidInput, rec[5])
		}
	}

	product, err := im.products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
	}

	return im.lots.ReceiveLot(ctx, im.userID, dto.ReceiveLotRequest{
		ProductID:  product.ID,
		LocationID: locationID,
		LotNumber:  lotNumber,
		ExpiryDate: expiry,
		Quantity:   qty,
		UnitCost:   cost,
	})
}
