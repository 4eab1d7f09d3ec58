package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/application/usecase"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/jhoicas/fishstock-api/internal/infrastructure/memory"
	"github.com/jhoicas/fishstock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/fishstock-api/internal/interfaces/http"
	"github.com/jhoicas/fishstock-api/pkg/config"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	"github.com/jhoicas/fishstock-api/pkg/metrics"
	"github.com/jhoicas/fishstock-api/pkg/migrate"
	pkgredis "github.com/jhoicas/fishstock-api/pkg/redis"
	"github.com/jhoicas/fishstock-api/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

// version se fija en build con -ldflags "-X main.version=...".
var version = "dev"

const swaggerFile = "./docs/swagger.json"

// backend persistencia elegida por STORE_DRIVER.
type backend struct {
	txRunner inventory.TxRunner
	repos    inventory.Repos
	demand   repository.DemandRepository
	ping     func(ctx context.Context) error
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
		Version: version,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}

	var (
		idempotency pkgredis.IdempotencyStore
		redisClient *pkgredis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		idempotency = redisClient
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: Idempotency-Key desactivado")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	invMetrics := metrics.NewInventoryMetrics(reg)

	repos := store.repos
	ledgerSvc := inventory.NewLedgerService(store.txRunner, repos.Ledger, invMetrics, nil)
	capacitySvc := inventory.NewCapacityService(repos.Locations, repos.Ledger)
	aggregator := inventory.NewAggregator(repos.Locations, repos.Batches, repos.Ledger, store.demand, log.Component("reports"), invMetrics, nil)
	reports := inventory.NewReportingFacade(aggregator, ledgerSvc)
	coordinator := inventory.NewTransferCoordinator(store.txRunner, repos.Transfers, log.Component("transfers"), invMetrics, nil)
	intake := inventory.NewProcessingIntake(store.txRunner, log.Component("intake"), invMetrics, nil)
	removal := inventory.NewRemovalService(store.txRunner, log.Component("removals"), invMetrics, nil)
	locationUC := usecase.NewStorageLocationUseCase(repos.Locations, capacitySvc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "FishStock API",
		}))
	}

	httpRouter.RegisterOps(app, httpRouter.OpsDeps{
		Service:  cfg.App.Name,
		Driver:   cfg.Store.Driver,
		Gatherer: reg,
		Ping:     store.ping,
	})
	httpRouter.Router(app, httpRouter.RouterDeps{
		StorageLocationUC: locationUC,
		Reports:           reports,
		Intake:            intake,
		Removal:           removal,
		Transfers:         coordinator,
		Idempotency:       idempotency,
		IdempotencyTTL:    cfg.Idempotency.TTL,
		Log:               log.Component("http"),
		JWTSecret:         cfg.JWT.Secret,
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

	// El servidor primero: las aprobaciones en curso terminan antes de cerrar el almacén.
	err = multierr.Combine(
		app.ShutdownWithContext(shutdownCtx),
		shutdownTracer(shutdownCtx),
		redisClient.Close(),
		store.close(),
	)
	if err != nil {
		log.Error().Err(err).Msg("apagado con errores")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		s := memory.NewStore()
		log.Warn().Msg("driver en memoria: el inventario se pierde al reiniciar")
		return &backend{
			txRunner: s,
			repos:    s.Repos(),
			demand:   s.Demand(),
			close:    func() error { return nil },
		}, nil
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := migrate.Up(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info().Msg("migraciones aplicadas")
		}
		return &backend{
			txRunner: postgres.NewTxRunner(pool),
			repos:    postgres.Repos(pool),
			demand:   postgres.NewDemandRepository(pool),
			ping:     pool.Ping,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil
	}
	return nil, errors.New("STORE_DRIVER desconocido: " + cfg.Store.Driver)
}
