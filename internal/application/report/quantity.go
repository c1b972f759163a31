package report

import (
	"fmt"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// Mode filtro de secado de la vista de cantidades.
type Mode string

// Modos de la vista de cantidades.
const (
	ModeDry     Mode = "dry"
	ModeNotDry  Mode = "not_dry"
	ModeUnknown Mode = "unknown"
	ModeAll     Mode = "all"
)

// TotalLabel etiqueta de la fila de totales.
const TotalLabel = "Total"

// Modes todos los modos en orden de presentación.
func Modes() []Mode { return []Mode{ModeDry, ModeNotDry, ModeUnknown, ModeAll} }

// ParseMode valida el modo recibido en la consulta.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: modo %q", domain.ErrInvalidInput, s)
}

// QuantityView deriva unidades del pivote de peso para un modo: qty = trunc(kg / coeficiente).
// Se calcula sobre el pivote ya agregado, nunca sobre los registros.
func QuantityView(p *StockPivot, table stock.ConversionTable, mode Mode) dto.QuantityViewDTO {
	forms := table.Forms()
	view := dto.QuantityViewDTO{Mode: string(mode)}
	for _, f := range forms {
		view.Forms = append(view.Forms, string(f))
	}

	total := dto.QuantityRowDTO{Species: TotalLabel, TotalKg: decimal.Zero}
	for _, f := range forms {
		coef, _ := table.Coefficient(f)
		total.Cells = append(total.Cells, dto.QuantityCellDTO{
			Form: string(f), Coefficient: coef, Kg: decimal.Zero, RemainderKg: decimal.Zero,
		})
	}

	for _, species := range p.Species() {
		// TotalKg suma solo las columnas visibles; formas fuera de la tabla quedan en el pivote de kg.
		row := dto.QuantityRowDTO{Species: species, TotalKg: decimal.Zero}
		for i, f := range forms {
			coef, _ := table.Coefficient(f)
			kg := decimal.Zero
			if c, ok := p.Cell(species, f); ok {
				kg = c.ForMode(mode)
			}
			qty, rem, err := table.QuantityFromWeight(kg, f)
			if err != nil {
				continue
			}
			row.Cells = append(row.Cells, dto.QuantityCellDTO{
				Form: string(f), Kg: kg, Coefficient: coef, Qty: qty, RemainderKg: rem,
			})
			row.TotalKg = row.TotalKg.Add(kg)
			tc := &total.Cells[i]
			tc.Kg = tc.Kg.Add(kg)
			tc.Qty += qty
			tc.RemainderKg = tc.RemainderKg.Add(rem)
		}
		total.TotalKg = total.TotalKg.Add(row.TotalKg)
		view.Rows = append(view.Rows, row)
	}
	view.Total = total
	return view
}
