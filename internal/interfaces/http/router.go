package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/ledger"
	"github.com/jhoicas/woodstock-api/internal/application/report"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Events    *ledger.EventProcessor
	Views     *report.ViewDispatcher
	Stock     *report.StockReportUseCase
	Shipments *report.ShipmentReportUseCase
	Store     storePinger // opcional: /health y guardia de recargas
	Container string
	JWTSecret string
	AppName   string
	StoreName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Health (público)
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if deps.Store != nil {
			if err := deps.Store.Ping(c.UserContext(), deps.Container); err != nil {
				status = "degraded"
			}
		}
		return c.JSON(dto.HealthResponse{Status: status, App: deps.AppName, Store: deps.StoreName})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Eventos del formulario del libro
	ledgerHandler := NewLedgerHandler(deps.Events, deps.Views)
	api.Post("/ledger/events", ledgerHandler.HandleEvent)

	// Reportes: lectura para cualquier rol, recarga solo admin u operador
	reports := api.Group("/reports")
	reportHandler := NewReportHandler(deps.Stock, deps.Shipments)
	reload := []fiber.Handler{RequireRole(RoleAdmin, RoleOperator), RequireStore(deps.Store, deps.Container)}

	reports.Get("/stock", reportHandler.GetStock)
	reports.Get("/stock/pdf", reportHandler.GetStockPDF)
	reports.Post("/stock/reload", append(reload, reportHandler.ReloadStock)...)
	reports.Get("/shipments", reportHandler.GetShipments)
	reports.Post("/shipments/reload", append(reload, reportHandler.ReloadShipments)...)
}
