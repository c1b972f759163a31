package report

import "context"

// ViewDispatcher resuelve qué reporte corresponde a un evento view.shown.
type ViewDispatcher struct {
	stockView    string
	shipmentView string // vacío = cualquier otra vista
	stock        *StockReportUseCase
	shipments    *ShipmentReportUseCase
}

// NewViewDispatcher construye el despachador de vistas.
func NewViewDispatcher(stockView, shipmentView string, stock *StockReportUseCase, shipments *ShipmentReportUseCase) *ViewDispatcher {
	return &ViewDispatcher{stockView: stockView, shipmentView: shipmentView, stock: stock, shipments: shipments}
}

// Dispatch devuelve el reporte de la vista; false si la vista no tiene reporte.
func (d *ViewDispatcher) Dispatch(ctx context.Context, viewName string) (any, bool) {
	switch {
	case d.stock != nil && viewName == d.stockView:
		return d.stock.Render(ctx), true
	case d.shipments != nil && (d.shipmentView == "" || viewName == d.shipmentView):
		return d.shipments.Render(ctx), true
	default:
		return nil, false
	}
}
