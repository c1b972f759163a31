package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/report"
	"github.com/jhoicas/woodstock-api/internal/domain"
)

// ReportHandler expone los reportes de existencias y de despachos (protegido).
// Un fallo del almacén no es un error HTTP: el reporte llega con su panel de error.
type ReportHandler struct {
	stock     *report.StockReportUseCase
	shipments *report.ShipmentReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(stock *report.StockReportUseCase, shipments *report.ShipmentReportUseCase) *ReportHandler {
	return &ReportHandler{stock: stock, shipments: shipments}
}

// GetStock godoc
// @Summary      Reporte de existencias
// @Description  Pivote de kg por especie, forma y estado de secado más las vistas de cantidades.
//
//	Con ?mode= devuelve solo la vista de cantidades de ese modo.
//
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        mode  query  string  false  "dry | not_dry | unknown | all"
// @Success      200  {object}  dto.StockReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/reports/stock [get]
func (h *ReportHandler) GetStock(c *fiber.Ctx) error {
	if raw := c.Query("mode"); raw != "" {
		mode, err := report.ParseMode(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_MODE", Message: err.Error()})
		}
		view, panel := h.stock.View(c.UserContext(), mode)
		if panel != nil {
			return c.JSON(fiber.Map{"mode": string(mode), "error": panel})
		}
		return c.JSON(view)
	}
	return c.JSON(h.stock.Render(c.UserContext()))
}

// ReloadStock godoc
// @Summary      Recargar reporte de existencias
// @Description  Descarta la instantánea vigente y vuelve a leer todos los registros.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockReportDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/stock/reload [post]
func (h *ReportHandler) ReloadStock(c *fiber.Ctx) error {
	return c.JSON(h.stock.Reload(c.UserContext()))
}

// GetStockPDF godoc
// @Summary      Descargar reporte de existencias en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      501  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/stock/pdf [get]
func (h *ReportHandler) GetStockPDF(c *fiber.Ctx) error {
	data, filename, err := h.stock.ExportPDF(c.UserContext())
	if err != nil {
		switch {
		case errors.Is(err, report.ErrPDFDisabled):
			return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: err.Error()})
		case errors.Is(err, domain.ErrStoreUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// GetShipments godoc
// @Summary      Despachos del año fiscal por destino
// @Description  Total del año fiscal y último despacho por destino, ordenado por total descendente.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ShipmentReportDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/reports/shipments [get]
func (h *ReportHandler) GetShipments(c *fiber.Ctx) error {
	return c.JSON(h.shipments.Render(c.UserContext()))
}

// ReloadShipments godoc
// @Summary      Recargar reporte de despachos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ShipmentReportDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/shipments/reload [post]
func (h *ReportHandler) ReloadShipments(c *fiber.Ctx) error {
	return c.JSON(h.shipments.Reload(c.UserContext()))
}
