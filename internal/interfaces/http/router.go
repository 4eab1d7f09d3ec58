package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/application/usecase"
	"github.com/jhoicas/fishstock-api/pkg/jwt"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	pkgredis "github.com/jhoicas/fishstock-api/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StorageLocationUC *usecase.StorageLocationUseCase
	Reports           *inventory.ReportingFacade
	Intake            *inventory.ProcessingIntake
	Removal           *inventory.RemovalService
	Transfers         *inventory.TransferCoordinator
	// Idempotency nil desactiva el soporte de Idempotency-Key.
	Idempotency    pkgredis.IdempotencyStore
	IdempotencyTTL time.Duration
	Log            *logger.Logger
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL, log)
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	admins := RequireRole(jwt.RoleAdmin)

	// Todas las rutas requieren Bearer Token; las lecturas admiten cualquier rol.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	inv := api.Group("/inventory")
	invHandler := NewInventoryHandler(deps.Reports, deps.Intake, deps.Removal, log)
	inv.Get("/by-location", invHandler.ByLocation)
	inv.Get("/oldest-batches", invHandler.OldestBatches)
	inv.Get("/size-demand-statistics", invHandler.SizeDemandStatistics)
	inv.Get("/cells/:locationId/:sizeClass", invHandler.CellStock)
	inv.Post("/processing-batches", writers, idem, invHandler.AddProcessingBatch)
	inv.Post("/removals", writers, idem, invHandler.RemoveStock)

	// Traslados: solicitar es de operador; decidir es solo de admin.
	transferHandler := NewTransferHandler(deps.Transfers, log)
	inv.Get("/transfers", transferHandler.List)
	inv.Get("/transfers/:id", transferHandler.GetByID)
	inv.Post("/transfers", writers, idem, transferHandler.Create)
	inv.Post("/transfers/:id/approve", admins, idem, transferHandler.Approve)
	inv.Post("/transfers/:id/reject", admins, idem, transferHandler.Reject)

	locations := api.Group("/storage-locations")
	locationHandler := NewStorageLocationHandler(deps.StorageLocationUC, log)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Post("/", admins, locationHandler.Create)
	locations.Patch("/:id/status", admins, locationHandler.UpdateStatus)
}

// OpsDeps dependencias de las rutas operativas.
type OpsDeps struct {
	Service  string
	Driver   string
	Gatherer prometheus.Gatherer
	// Ping verifica el almacén; nil se considera sano.
	Ping func(ctx context.Context) error
}

// RegisterOps registra /health y /metrics (públicos).
func RegisterOps(app *fiber.App, deps OpsDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": deps.Service, "store": deps.Driver})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.Service, "store": deps.Driver})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
}
