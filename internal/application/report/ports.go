package report

import (
	"context"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/fetch"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
)

// BulkSource lectura completa de un contenedor (fetch.BulkFetcher).
type BulkSource interface {
	Fetch(ctx context.Context, container string, filter entity.QueryFilter) (fetch.Result, error)
}

// CursorSource lectura filtrada y ordenada (fetch.CursorFetcher).
type CursorSource interface {
	Fetch(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) (fetch.Result, error)
}

// StockReportPDFGenerator genera el PDF del reporte de existencias.
type StockReportPDFGenerator interface {
	GenerateStockReport(rep *dto.StockReportDTO) ([]byte, error)
}
