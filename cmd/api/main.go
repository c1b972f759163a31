package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/woodstock-api/internal/application/fetch"
	"github.com/jhoicas/woodstock-api/internal/application/ledger"
	"github.com/jhoicas/woodstock-api/internal/application/report"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	infrapdf "github.com/jhoicas/woodstock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/woodstock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/woodstock-api/internal/infrastructure/recordstore"
	httpRouter "github.com/jhoicas/woodstock-api/internal/interfaces/http"
	"github.com/jhoicas/woodstock-api/internal/scheduler"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// recordStore almacén de lectura más su ping de salud.
type recordStore interface {
	repository.RecordStore
	Ping(ctx context.Context, container string) error
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Strs("forms", cfg.Stock.SortedForms()).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacén de registros: REST remoto o libro local en PostgreSQL.
	// Con PostgreSQL el mismo repositorio persiste los envíos validados.
	var (
		store     recordStore
		ledgerRep repository.LedgerRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repo := postgres.NewLedgerRecordRepository(pool, cfg.Store.ContainerID, cfg.Stock.Location)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("esquema del libro")
		}
		store, ledgerRep = repo, repo
	default:
		store = recordstore.NewClient(cfg.Store)
	}

	bulk := fetch.NewBulkFetcher(store, cfg.Stock, cfg.Store.RequestTimeout, log)
	cursor := fetch.NewCursorFetcher(store, cfg.Stock, cfg.Store.RequestTimeout, log)

	// PDF: reporte de existencias descargable
	pdfGenerator := infrapdf.NewMarotoStockReportGenerator(cfg.App.Name + " · existencias")
	stockUC := report.NewStockReportUseCase(bulk, cfg.Stock, cfg.Store.ContainerID, cfg.Report.CacheTTL, pdfGenerator, log)
	shipmentUC := report.NewShipmentReportUseCase(cursor, cfg.Stock, cfg.Store.ContainerID, cfg.Report.CacheTTL, log)
	views := report.NewViewDispatcher(cfg.Report.StockViewName, cfg.Report.ShipmentViewName, stockUC, shipmentUC)

	identity := ledger.ContextIdentity{}
	engine := ledger.NewDerivationEngine(cfg.Stock, log)
	validator := ledger.NewSubmissionValidator(cfg.Stock, identity, log)
	events := ledger.NewEventProcessor(engine, validator, ledgerRep, identity, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    cfg.App.Name + " API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Events:    events,
		Views:     views,
		Stock:     stockUC,
		Shipments: shipmentUC,
		Store:     store,
		Container: cfg.Store.ContainerID,
		JWTSecret: cfg.JWT.Secret,
		AppName:   cfg.App.Name,
		StoreName: cfg.Store.Driver,
	})

	sched := scheduler.New(cfg.Report.CronSchedule, cfg.Stock.Location, stockUC, shipmentUC, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Report.CronSchedule).Msg("expresión cron inválida")
	}

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

	sched.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
