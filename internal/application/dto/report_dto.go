package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErrorPanelDTO panel de error en línea cuando falla el render de un reporte.
type ErrorPanelDTO struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// DryCellsDTO kg por estado de secado.
type DryCellsDTO struct {
	Dry     decimal.Decimal `json:"dry"`
	NotDry  decimal.Decimal `json:"not_dry"`
	Unknown decimal.Decimal `json:"unknown"`
	Total   decimal.Decimal `json:"total"`
}

// Tipos de fila del pivote.
const (
	PivotRowForm     = "form"
	PivotRowSubtotal = "subtotal"
	PivotRowTotal    = "total"
)

// StockPivotRowDTO fila del pivote especie × forma × secado (kg).
type StockPivotRowDTO struct {
	Kind    string      `json:"kind"` // form | subtotal | total
	Species string      `json:"species"`
	Form    string      `json:"form,omitempty"`
	Cells   DryCellsDTO `json:"cells"`
}

// QuantityCellDTO unidades derivadas del peso para una forma.
type QuantityCellDTO struct {
	Form        string          `json:"form"`
	Kg          decimal.Decimal `json:"kg"`
	Coefficient decimal.Decimal `json:"coefficient"`
	Qty         int64           `json:"qty"`
	RemainderKg decimal.Decimal `json:"remainder_kg"`
}

// QuantityRowDTO fila por especie de la vista de cantidades.
type QuantityRowDTO struct {
	Species string            `json:"species"`
	Cells   []QuantityCellDTO `json:"cells"`
	TotalKg decimal.Decimal   `json:"total_kg"`
}

// QuantityViewDTO vista de cantidades para un modo (dry, not_dry, unknown, all).
type QuantityViewDTO struct {
	Mode  string           `json:"mode"`
	Forms []string         `json:"forms"`
	Rows  []QuantityRowDTO `json:"rows"`
	Total QuantityRowDTO   `json:"total"`
}

// StockReportDTO respuesta de GET /api/reports/stock.
type StockReportDTO struct {
	RenderID    string             `json:"render_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	FetchMode   string             `json:"fetch_mode,omitempty"`
	RecordCount int                `json:"record_count"`
	Pivot       []StockPivotRowDTO `json:"pivot,omitempty"`
	Views       []QuantityViewDTO  `json:"views,omitempty"`
	Error       *ErrorPanelDTO     `json:"error,omitempty"`
}

// ShipmentRowDTO fila por destino del resumen de despachos.
type ShipmentRowDTO struct {
	Destination string          `json:"destination"`
	FYTotal     decimal.Decimal `json:"fy_total"`
	LastDate    string          `json:"last_date"`
	LastQty     decimal.Decimal `json:"last_qty"`
	LastSpecies string          `json:"last_species"`
}

// ShipmentReportDTO respuesta de GET /api/reports/shipments.
type ShipmentReportDTO struct {
	RenderID    string           `json:"render_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	WindowStart string           `json:"window_start"`
	WindowEnd   string           `json:"window_end"`
	RecordCount int              `json:"record_count"`
	Status      string           `json:"status"`
	Rows        []ShipmentRowDTO `json:"rows,omitempty"`
	Total       *ShipmentRowDTO  `json:"total,omitempty"`
	Error       *ErrorPanelDTO   `json:"error,omitempty"`
}
