package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

const shipmentErrorTitle = "No se pudo generar el resumen de despachos"

// ShipmentReportUseCase resumen de despachos por destino en el año fiscal en curso.
type ShipmentReportUseCase struct {
	source     CursorSource
	container  string
	startMonth int
	loc        *time.Location
	now        func() time.Time
	snap       *snapshot[*dto.ShipmentReportDTO]
	log        *logger.Logger
}

// NewShipmentReportUseCase construye el caso de uso.
func NewShipmentReportUseCase(
	source CursorSource,
	cfg config.StockConfig,
	container string,
	cacheTTL time.Duration,
	log *logger.Logger,
) *ShipmentReportUseCase {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ShipmentReportUseCase{
		source:     source,
		container:  container,
		startMonth: cfg.FiscalYearStartMonth,
		loc:        loc,
		now:        time.Now,
		snap:       newSnapshot[*dto.ShipmentReportDTO]("shipments", cacheTTL),
		log:        log.Component("shipment_report"),
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ShipmentReportUseCase) WithClock(now func() time.Time) *ShipmentReportUseCase {
	uc.now = now
	uc.snap.now = now
	return uc
}

// Render devuelve el último resumen si sigue vigente; si no, recarga.
func (uc *ShipmentReportUseCase) Render(ctx context.Context) *dto.ShipmentReportDTO {
	if rep, ok := uc.snap.fresh(); ok {
		return rep
	}
	return uc.Reload(ctx)
}

// Reload recalcula siempre.
func (uc *ShipmentReportUseCase) Reload(ctx context.Context) *dto.ShipmentReportDTO {
	return uc.snap.reload(ctx, uc.build, func(r *dto.ShipmentReportDTO) bool { return r.Error == nil })
}

func (uc *ShipmentReportUseCase) build(ctx context.Context) (rep *dto.ShipmentReportDTO) {
	now := uc.now().In(uc.loc)
	start, end := stock.FiscalWindow(now, uc.startMonth)
	rep = &dto.ShipmentReportDTO{
		RenderID:    uuid.NewString(),
		GeneratedAt: now,
		WindowStart: start.Format(entity.DateLayout),
		WindowEnd:   end.Format(entity.DateLayout),
	}
	defer func() {
		if r := recover(); r != nil {
			uc.fail(rep, fmt.Errorf("panic: %v", r))
		}
	}()

	filter := entity.QueryFilter{Direction: entity.DirectionOUT, DateFrom: &start, DateTo: &end}
	res, err := uc.source.Fetch(ctx, uc.container, filter, entity.SortOrder{Field: entity.FieldDate, Desc: true})
	if err != nil {
		uc.fail(rep, err)
		return rep
	}

	sum := BuildShipmentSummary(res.Records)
	rep.RecordCount = sum.RecordCount
	rep.Status = fmt.Sprintf("%s〜%s / %d registros", rep.WindowStart, rep.WindowEnd, sum.RecordCount)
	for _, row := range sum.Rows {
		rep.Rows = append(rep.Rows, row.toDTO())
	}
	total := sum.Total.toDTO()
	rep.Total = &total
	return rep
}

func (uc *ShipmentReportUseCase) fail(rep *dto.ShipmentReportDTO, err error) {
	uc.log.Error().Err(err).Str("render_id", rep.RenderID).Msg("fallo al generar resumen de despachos")
	rep.Rows, rep.Total = nil, nil
	rep.Status = "error"
	rep.Error = &dto.ErrorPanelDTO{Title: shipmentErrorTitle, Detail: err.Error()}
}
