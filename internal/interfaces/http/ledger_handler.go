package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/ledger"
	"github.com/jhoicas/woodstock-api/internal/application/report"
)

// LedgerHandler recibe los eventos del runtime de formularios (protegido).
type LedgerHandler struct {
	events *ledger.EventProcessor
	views  *report.ViewDispatcher
}

// NewLedgerHandler construye el handler. views puede ser nil (view.shown se devuelve sin reporte).
func NewLedgerHandler(events *ledger.EventProcessor, views *report.ViewDispatcher) *LedgerHandler {
	return &LedgerHandler{events: events, views: views}
}

// HandleEvent godoc
// @Summary      Procesar evento de registro
// @Description  record.shown y field.changed devuelven el registro con los campos derivados.
//
//	record.submit valida (y persiste si hay libro local); error no vacío en el cuerpo bloquea el guardado.
//	view.shown devuelve en report el reporte de la vista, o nada si la vista no tiene reporte.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordEvent  true  "type, record y, según el tipo, field o view_name"
// @Success      200   {object}  dto.RecordEvent
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/ledger/events [post]
func (h *LedgerHandler) HandleEvent(c *fiber.Ctx) error {
	var ev dto.RecordEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ctx := c.UserContext()

	switch ev.Type {
	case dto.EventViewShown:
		if h.views != nil {
			if rep, ok := h.views.Dispatch(ctx, ev.ViewName); ok {
				ev.Report = rep
			}
		}
		return c.JSON(ev)
	case dto.EventRecordShown, dto.EventFieldChanged:
		if ev.Record == nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "record requerido"})
		}
		if ev.Type == dto.EventFieldChanged && ev.Field == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "field requerido en field.changed"})
		}
		return c.JSON(h.events.Process(ctx, ev))
	case dto.EventRecordSubmit:
		if ev.Record == nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "record requerido"})
		}
		return c.JSON(h.events.Process(ctx, ev))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNKNOWN_EVENT", Message: "tipo de evento no soportado: " + ev.Type})
	}
}
