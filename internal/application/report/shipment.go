package report

import (
	"sort"
	"strings"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ShipmentRow resumen por destino dentro de la ventana fiscal.
type ShipmentRow struct {
	Destination string
	FYTotal     decimal.Decimal
	LastDate    string // YYYY-MM-DD; vacío si ningún registro trae fecha
	LastQty     decimal.Decimal
	LastSpecies []string // orden de primera aparición
}

// ShipmentSummary filas ordenadas por FYTotal descendente más la fila Total.
type ShipmentSummary struct {
	Rows        []ShipmentRow
	Total       ShipmentRow
	RecordCount int
}

// BuildShipmentSummary pliega salidas ya filtradas a la ventana fiscal y ordenadas por fecha descendente.
// La cantidad despachada es |kg| (las salidas se guardan con signo negativo).
func BuildShipmentSummary(records []entity.Record) ShipmentSummary {
	byDest := make(map[string]*ShipmentRow)
	seen := make(map[string]map[string]bool)
	var order []string

	for _, rec := range records {
		if rec == nil {
			continue
		}
		dest := stock.LabelOrUnset(rec.Value(entity.FieldShippingTo))
		row, ok := byDest[dest]
		if !ok {
			row = &ShipmentRow{Destination: dest, FYTotal: decimal.Zero, LastQty: decimal.Zero}
			byDest[dest] = row
			seen[dest] = make(map[string]bool)
			order = append(order, dest)
		}

		qty := rec.Number(entity.FieldKg).Abs()
		row.FYTotal = row.FYTotal.Add(qty)

		date := entity.NormalizeDate(rec.Value(entity.FieldDate))
		if row.LastDate == "" && date != "" {
			row.LastDate = date
		}
		if date == "" || date != row.LastDate {
			continue
		}
		row.LastQty = row.LastQty.Add(qty)
		if species := stock.NormalizeLabel(rec.Value(entity.FieldSpecies)); species != "" && !seen[dest][species] {
			seen[dest][species] = true
			row.LastSpecies = append(row.LastSpecies, species)
		}
	}

	sum := ShipmentSummary{RecordCount: len(records)}
	total := ShipmentRow{Destination: TotalLabel, FYTotal: decimal.Zero, LastQty: decimal.Zero}
	for _, dest := range order {
		row := *byDest[dest]
		sum.Rows = append(sum.Rows, row)
		total.FYTotal = total.FYTotal.Add(row.FYTotal)
		total.LastQty = total.LastQty.Add(row.LastQty)
		if row.LastDate > total.LastDate {
			total.LastDate = row.LastDate
		}
	}
	sort.SliceStable(sum.Rows, func(i, j int) bool {
		a, b := sum.Rows[i], sum.Rows[j]
		if c := a.FYTotal.Cmp(b.FYTotal); c != 0 {
			return c > 0
		}
		return a.Destination < b.Destination
	})
	sum.Total = total
	return sum
}

func (r ShipmentRow) toDTO() dto.ShipmentRowDTO {
	return dto.ShipmentRowDTO{
		Destination: r.Destination,
		FYTotal:     r.FYTotal,
		LastDate:    r.LastDate,
		LastQty:     r.LastQty,
		LastSpecies: strings.Join(r.LastSpecies, ","),
	}
}
