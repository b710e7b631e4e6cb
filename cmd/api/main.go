package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/internal/application/sales"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/messaging"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// repos agrupa los adaptadores de persistencia elegidos al arrancar (PostgreSQL o memoria).
type repos struct {
	txRunner  inventory.TxRunner
	products  repository.ProductRepository
	locations repository.LocationRepository
	lots      repository.LotRepository
	stock     repository.StockRepository
	movements repository.StockMovementRepository
	sales     repository.SaleRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	checks := map[string]httpRouter.HealthCheck{}

	var r repos
	if cfg.DB.Configured() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("aplicar migraciones")
			}
			log.Info().Strs("applied", applied).Msg("migraciones al día")
		}
		r = repos{
			txRunner:  postgres.NewTxRunner(pool),
			products:  postgres.NewProductRepository(pool),
			locations: postgres.NewLocationRepository(pool),
			lots:      postgres.NewLotRepository(pool),
			stock:     postgres.NewStockRepository(pool),
			movements: postgres.NewStockMovementRepository(pool),
			sales:     postgres.NewSaleRepository(pool),
		}
		checks["postgres"] = pool.Ping
	} else {
		log.Warn().Msg("sin DATABASE_URL ni DB_HOST: usando almacenamiento en memoria (los datos se pierden al reiniciar)")
		store := memory.New()
		r = repos{
			txRunner:  store,
			products:  store.Products(),
			locations: store.Locations(),
			lots:      store.Lots(),
			stock:     store.Stock(),
			movements: store.Movements(),
			sales:     store.Sales(),
		}
	}

	// Cache de catálogo (opcional)
	if client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		defer client.Close()
		productCache := cache.NewProductCache(r.products, client, cfg.Redis.CacheTTL, log.Component("cache"))
		if err := productCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde; se sigue leyendo de la base")
		}
		r.products = productCache
		checks["redis"] = productCache.Ping
	}

	// Publicación de eventos (opcional)
	var publisher ports.EventPublisher = ports.NoopEventPublisher{}
	if cfg.RabbitMQ.URL != "" {
		pub, err := messaging.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.App.Name, log.Component("messaging"))
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq no disponible; los eventos se descartan")
		} else {
			defer pub.Close()
			publisher = pub
			checks["rabbitmq"] = func(context.Context) error {
				if !pub.Healthy() {
					return errors.New("conexión a rabbitmq cerrada")
				}
				return nil
			}
		}
	}

	movementLedger := inventory.NewMovementLedger(r.movements)
	lotLedger := inventory.NewLotLedger(movementLedger)
	allocator := inventory.NewAllocator(lotLedger)

	lotUC := inventory.NewLotUseCase(r.txRunner, lotLedger, r.products, r.locations, r.lots, publisher, log.Component("lots"))
	lowStockUC := inventory.NewLowStockUseCase(r.stock, r.products, r.locations)
	saleUC := sales.NewSaleUseCase(
		r.txRunner, lotLedger, allocator,
		r.sales, r.products, r.locations, r.stock,
		publisher, log.Component("sales"), sales.Policy{RestockOnCancel: cfg.Sales.RestockOnCancel},
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		SaleUC:          saleUC,
		LotUC:           lotUC,
		Movements:       movementLedger,
		LowStockUC:      lowStockUC,
		JWTSecret:       cfg.JWT.Secret,
		AppName:         cfg.App.Name,
		Log:             log.Component("http"),
		HealthChecks:    checks,
		WithCorrelation: messaging.WithCorrelationID,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
