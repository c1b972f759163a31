// Package pdf genera el reporte de existencias en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación + modo de lectura     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PIVOTE kg: Especie | Forma | Seco | No seco | ? | Total    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CANTIDADES (todos): Especie | box | bundle | loose | kg    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: id de render                                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/report"
)

var _ report.StockReportPDFGenerator = (*MarotoStockReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 70, Green: 90, Blue: 40}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorLight   = &props.Color{Red: 236, Green: 240, Blue: 228}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoStockReportGenerator implementa report.StockReportPDFGenerator usando Maroto v2.
type MarotoStockReportGenerator struct {
	title string
}

// NewMarotoStockReportGenerator construye el generador; title encabeza el documento.
func NewMarotoStockReportGenerator(title string) *MarotoStockReportGenerator {
	if title == "" {
		title = "Reporte de existencias"
	}
	return &MarotoStockReportGenerator{title: title}
}

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoStockReportGenerator) GenerateStockReport(rep *dto.StockReportDTO) ([]byte, error) {
	if rep == nil {
		return nil, fmt.Errorf("pdf: reporte nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("EXISTENCIAS (kg)"))
	m.AddRows(pivotHeaderRow())
	m.AddRows(pivotRows(rep.Pivot)...)

	if view, ok := allView(rep.Views); ok {
		m.AddRows(line.NewRow(4))
		m.AddRows(sectionRow("CANTIDADES (todos los estados)"))
		m.AddRows(quantityHeaderRow(view))
		m.AddRows(quantityRows(view)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(text.NewRow(6, "Render "+rep.RenderID, props.Text{Size: 7, Color: colorGray, Align: align.Right}))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoStockReportGenerator) headerRow(rep *dto.StockReportDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(g.title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%d registros", rep.RecordCount), props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New(rep.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Lectura: "+nonEmpty(rep.FetchMode, "—"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func sectionRow(label string) core.Row {
	return text.NewRow(8, label, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2})
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
	}))
}

func pivotHeaderRow() core.Row {
	return row.New(8).Add(
		headerCell("Especie", 2, align.Left),
		headerCell("Forma", 2, align.Left),
		headerCell("Seco", 2, align.Right),
		headerCell("No seco", 2, align.Right),
		headerCell("Desconocido", 2, align.Right),
		headerCell("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func pivotRows(rows []dto.StockPivotRowDTO) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		style := fontstyle.Normal
		if r.Kind != dto.PivotRowForm {
			style = fontstyle.Bold
		}
		species, form := r.Species, r.Form
		if r.Kind == dto.PivotRowSubtotal {
			form = "Subtotal"
		}
		cell := func(v string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(v, props.Text{Size: 8, Style: style, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		rw := row.New(6).Add(
			cell(species, 2, align.Left),
			cell(form, 2, align.Left),
			cell(kg(r.Cells.Dry), 2, align.Right),
			cell(kg(r.Cells.NotDry), 2, align.Right),
			cell(kg(r.Cells.Unknown), 2, align.Right),
			cell(kg(r.Cells.Total), 2, align.Right),
		)
		if r.Kind != dto.PivotRowForm {
			rw = rw.WithStyle(&props.Cell{BackgroundColor: colorLight})
		}
		out = append(out, rw)
	}
	return out
}

func quantityHeaderRow(view dto.QuantityViewDTO) core.Row {
	width := formWidth(len(view.Forms))
	cols := []core.Col{headerCell("Especie", 3, align.Left)}
	for _, f := range view.Forms {
		cols = append(cols, headerCell(f, width, align.Right))
	}
	cols = append(cols, headerCell("kg", 3, align.Right))
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func quantityRows(view dto.QuantityViewDTO) []core.Row {
	width := formWidth(len(view.Forms))
	rows := append(append([]dto.QuantityRowDTO(nil), view.Rows...), view.Total)
	out := make([]core.Row, 0, len(rows))
	for i, r := range rows {
		style := fontstyle.Normal
		if i == len(rows)-1 {
			style = fontstyle.Bold
		}
		p := props.Text{Size: 8, Style: style, Align: align.Right, Top: 1, Left: 1, Right: 1}
		cols := []core.Col{col.New(3).Add(text.New(r.Species, props.Text{Size: 8, Style: style, Top: 1, Left: 1}))}
		for _, c := range r.Cells {
			cols = append(cols, col.New(width).Add(text.New(fmt.Sprintf("%d", c.Qty), p)))
		}
		cols = append(cols, col.New(3).Add(text.New(kg(r.TotalKg), p)))
		out = append(out, row.New(6).Add(cols...))
	}
	return out
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func allView(views []dto.QuantityViewDTO) (dto.QuantityViewDTO, bool) {
	for _, v := range views {
		if v.Mode == string(report.ModeAll) {
			return v, true
		}
	}
	return dto.QuantityViewDTO{}, false
}

// formWidth reparte 6 columnas de la grilla entre las formas.
func formWidth(n int) int {
	if n <= 0 {
		return 6
	}
	return max(1, 6/n)
}

func kg(d decimal.Decimal) string {
	return d.StringFixed(1)
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
