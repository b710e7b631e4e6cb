// import_lots registra recepciones de lotes desde un CSV de proveedor.
//
// Uso: go run ./cmd/import_lots [-latin1] [-sep ';'] [-user <id>] archivo.csv
// Formato: sku,location_id,lot_number,expiry(YYYY-MM-DD),quantity,unit_cost
// lot_number y expiry pueden ir vacíos. Cada fila pasa por la misma recepción que POST /api/lots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	sep := flag.String("sep", ",", "separador de columnas")
	userID := flag.String("user", "import_lots", "usuario registrado en los movimientos")
	flag.Parse()

	if flag.NArg() != 1 || utf8.RuneCountInString(*sep) != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_lots [-latin1] [-sep ','] [-user id] archivo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "import_lots"})
	if !cfg.DB.Configured() {
		log.Fatal().Msg("import_lots requiere DATABASE_URL o DB_HOST")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	products := postgres.NewProductRepository(pool)
	ledger := inventory.NewLotLedger(inventory.NewMovementLedger(postgres.NewStockMovementRepository(pool)))
	lotUC := inventory.NewLotUseCase(postgres.NewTxRunner(pool), ledger, products,
		postgres.NewLocationRepository(pool), postgres.NewLotRepository(pool), nil, log)

	im := &importer{
		products: products,
		lots:     lotUC,
		userID:   *userID,
		sep:      []rune(*sep)[0],
		latin1:   *latin1,
		log:      log,
	}
	res, err := im.Run(ctx, f)
	log.Info().Int("imported", res.Imported).Int("failed", len(res.Failed)).Msg("importación terminada")
	if err != nil {
		log.Error().Err(err).Msg("importación abortada")
		pool.Close()
		os.Exit(1)
	}
	if len(res.Failed) > 0 {
		pool.Close()
		os.Exit(1)
	}
}
