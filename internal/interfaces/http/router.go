package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/application/sales"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// HealthCheck verifica una dependencia externa (base, cache, broker).
type HealthCheck func(ctx context.Context) error

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SaleUC     *sales.SaleUseCase
	LotUC      *inventory.LotUseCase
	Movements  *inventory.MovementLedger
	LowStockUC *inventory.LowStockUseCase
	JWTSecret  string
	AppName    string
	Log        *logger.Logger

	// HealthChecks por nombre; una falla responde 503 en /health.
	HealthChecks map[string]HealthCheck
	// WithCorrelation propaga el X-Request-ID al contexto de los casos de uso (eventos).
	WithCorrelation func(ctx context.Context, id string) context.Context
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app.Use(requestid.New())
	if deps.WithCorrelation != nil {
		app.Use(func(c *fiber.Ctx) error {
			if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
				c.SetUserContext(deps.WithCorrelation(c.UserContext(), id))
			}
			return c.Next()
		})
	}

	app.Get("/health", healthHandler(deps))

	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ventas (vendedor/admin)
	saleHandler := NewSaleHandler(deps.SaleUC, deps.Log)
	salesGroup := protected.Group("/sales", RequireRole(RoleAdmin, RoleVendedor))
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/finalize", saleHandler.Finalize)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)

	// Lotes (bodeguero/admin)
	lotHandler := NewLotHandler(deps.LotUC, deps.Log)
	lots := protected.Group("/lots", RequireRole(RoleAdmin, RoleBodeguero))
	lots.Post("/", lotHandler.Receive)
	lots.Put("/:id/quantity", lotHandler.Adjust)
	lots.Get("/", lotHandler.List)

	// Consultas de inventario (cualquier rol autenticado)
	invHandler := NewInventoryHandler(deps.Movements, deps.LowStockUC, deps.Log)
	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	protected.Get("/movements", anyRole, invHandler.ListMovements)
	protected.Get("/inventory/low-stock", anyRole, invHandler.GetLowStock)
}

func healthHandler(deps RouterDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.StatusOK
		checks := fiber.Map{}
		for name, check := range deps.HealthChecks {
			if err := check(ctx); err != nil {
				deps.Log.Warn().Err(err).Str("check", name).Msg("health check falló")
				checks[name] = "down"
				status = fiber.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}
		overall := "ok"
		if status != fiber.StatusOK {
			overall = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": overall, "service": deps.AppName, "checks": checks})
	}
}
