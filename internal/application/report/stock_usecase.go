package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

const stockErrorTitle = "No se pudo generar el reporte de existencias"

// StockReportUseCase pivote de existencias especie × forma × secado y sus vistas de cantidades.
type StockReportUseCase struct {
	source    BulkSource
	container string
	table     stock.ConversionTable
	pdf       StockReportPDFGenerator
	snap      *snapshot[*dto.StockReportDTO]
	log       *logger.Logger
}

// NewStockReportUseCase construye el caso de uso. pdf puede ser nil (exportación deshabilitada).
func NewStockReportUseCase(
	source BulkSource,
	cfg config.StockConfig,
	container string,
	cacheTTL time.Duration,
	pdf StockReportPDFGenerator,
	log *logger.Logger,
) *StockReportUseCase {
	return &StockReportUseCase{
		source:    source,
		container: container,
		table:     stock.ConversionTableOf(cfg.Coefficients),
		pdf:       pdf,
		snap:      newSnapshot[*dto.StockReportDTO]("stock", cacheTTL),
		log:       log.Component("stock_report"),
	}
}

// WithClock reemplaza el reloj de la caché (tests).
func (uc *StockReportUseCase) WithClock(now func() time.Time) *StockReportUseCase {
	uc.snap.now = now
	return uc
}

// Render devuelve el último reporte si sigue vigente; si no, recarga.
func (uc *StockReportUseCase) Render(ctx context.Context) *dto.StockReportDTO {
	if rep, ok := uc.snap.fresh(); ok {
		return rep
	}
	return uc.Reload(ctx)
}

// Reload recalcula siempre. Los fallos quedan en rep.Error, nunca en pánico.
func (uc *StockReportUseCase) Reload(ctx context.Context) *dto.StockReportDTO {
	return uc.snap.reload(ctx, uc.build, func(r *dto.StockReportDTO) bool { return r.Error == nil })
}

func (uc *StockReportUseCase) build(ctx context.Context) (rep *dto.StockReportDTO) {
	rep = &dto.StockReportDTO{RenderID: uuid.NewString(), GeneratedAt: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			uc.fail(rep, fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := uc.source.Fetch(ctx, uc.container, entity.QueryFilter{})
	if err != nil {
		uc.fail(rep, err)
		return rep
	}
	pivot := BuildStockPivot(res.Records, uc.table)
	rep.FetchMode = res.Mode
	rep.RecordCount = len(res.Records)
	rep.Pivot = pivot.Rows()
	for _, mode := range Modes() {
		rep.Views = append(rep.Views, QuantityView(pivot, uc.table, mode))
	}
	return rep
}

func (uc *StockReportUseCase) fail(rep *dto.StockReportDTO, err error) {
	uc.log.Error().Err(err).Str("render_id", rep.RenderID).Msg("fallo al generar reporte de existencias")
	rep.Pivot, rep.Views = nil, nil
	rep.Error = &dto.ErrorPanelDTO{Title: stockErrorTitle, Detail: err.Error()}
}

// View devuelve la vista de cantidades del modo pedido a partir del reporte vigente.
func (uc *StockReportUseCase) View(ctx context.Context, mode Mode) (dto.QuantityViewDTO, *dto.ErrorPanelDTO) {
	rep := uc.Render(ctx)
	if rep.Error != nil {
		return dto.QuantityViewDTO{}, rep.Error
	}
	for _, v := range rep.Views {
		if v.Mode == string(mode) {
			return v, nil
		}
	}
	return dto.QuantityViewDTO{Mode: string(mode)}, nil
}

// ErrPDFDisabled la exportación a PDF no está configurada.
var ErrPDFDisabled = errors.New("exportación PDF no configurada")

// ExportPDF genera el PDF del reporte vigente y su nombre de archivo.
func (uc *StockReportUseCase) ExportPDF(ctx context.Context) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", ErrPDFDisabled
	}
	rep := uc.Render(ctx)
	if rep.Error != nil {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, rep.Error.Detail)
	}
	data, err := uc.pdf.GenerateStockReport(rep)
	if err != nil {
		return nil, "", fmt.Errorf("generar pdf: %w", err)
	}
	return data, fmt.Sprintf("stock-report-%s.pdf", rep.GeneratedAt.Format("20060102-1504")), nil
}
