package report

import (
	"sort"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// DryCells kg acumulados por estado de secado.
type DryCells struct {
	Dry     decimal.Decimal
	NotDry  decimal.Decimal
	Unknown decimal.Decimal
}

// Total suma de los tres estados.
func (c DryCells) Total() decimal.Decimal {
	return c.Dry.Add(c.NotDry).Add(c.Unknown)
}

// ForMode kg del modo pedido; ModeAll suma todo.
func (c DryCells) ForMode(mode Mode) decimal.Decimal {
	switch mode {
	case ModeDry:
		return c.Dry
	case ModeNotDry:
		return c.NotDry
	case ModeUnknown:
		return c.Unknown
	default:
		return c.Total()
	}
}

func (c *DryCells) add(state entity.DryState, kg decimal.Decimal) {
	switch state {
	case entity.DryStateDry:
		c.Dry = c.Dry.Add(kg)
	case entity.DryStateNotDry:
		c.NotDry = c.NotDry.Add(kg)
	default:
		c.Unknown = c.Unknown.Add(kg)
	}
}

func (c DryCells) plus(o DryCells) DryCells {
	return DryCells{Dry: c.Dry.Add(o.Dry), NotDry: c.NotDry.Add(o.NotDry), Unknown: c.Unknown.Add(o.Unknown)}
}

func (c DryCells) toDTO() dto.DryCellsDTO {
	return dto.DryCellsDTO{Dry: c.Dry, NotDry: c.NotDry, Unknown: c.Unknown, Total: c.Total()}
}

// StockPivot especie → forma → estado de secado → kg. Efímero, se reconstruye en cada render.
type StockPivot struct {
	cells   map[string]map[entity.Form]*DryCells
	species []string
	forms   map[string][]entity.Form
}

// BuildStockPivot pliega los registros en el pivote. El resultado no depende del orden de entrada.
// Peso vacío o inválido aporta cero pero la combinación especie/forma aparece igual.
func BuildStockPivot(records []entity.Record, table stock.ConversionTable) *StockPivot {
	p := &StockPivot{
		cells: make(map[string]map[entity.Form]*DryCells),
		forms: make(map[string][]entity.Form),
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		species := stock.LabelOrUnset(rec.Value(entity.FieldSpecies))
		form := entity.Form(stock.LabelOrUnset(rec.Value(entity.FieldUnit)))
		byForm, ok := p.cells[species]
		if !ok {
			byForm = make(map[entity.Form]*DryCells)
			p.cells[species] = byForm
		}
		cell, ok := byForm[form]
		if !ok {
			cell = &DryCells{}
			byForm[form] = cell
		}
		cell.add(entity.NormalizeDryState(rec.Value(entity.FieldDryState)), rec.Number(entity.FieldKg))
	}

	for species, byForm := range p.cells {
		p.species = append(p.species, species)
		p.forms[species] = orderForms(byForm, table)
	}
	sort.Slice(p.species, func(i, j int) bool { return labelLess(p.species[i], p.species[j]) })
	return p
}

// orderForms formas conocidas en orden de pivote (loose, bundle, box) y el resto alfabéticamente.
func orderForms(byForm map[entity.Form]*DryCells, table stock.ConversionTable) []entity.Form {
	out := make([]entity.Form, 0, len(byForm))
	known := make(map[entity.Form]bool)
	for _, f := range table.PivotOrder() {
		known[f] = true
		if _, ok := byForm[f]; ok {
			out = append(out, f)
		}
	}
	var rest []entity.Form
	for f := range byForm {
		if !known[f] {
			rest = append(rest, f)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return labelLess(string(rest[i]), string(rest[j])) })
	return append(out, rest...)
}

// labelLess orden alfabético con "(unset)" al final.
func labelLess(a, b string) bool {
	if (a == entity.UnsetLabel) != (b == entity.UnsetLabel) {
		return b == entity.UnsetLabel
	}
	return a < b
}

// Species especies en orden de presentación.
func (p *StockPivot) Species() []string { return p.species }

// Forms formas presentes para la especie, en orden de presentación.
func (p *StockPivot) Forms(species string) []entity.Form { return p.forms[species] }

// Cell kg por secado de una combinación especie/forma.
func (p *StockPivot) Cell(species string, form entity.Form) (DryCells, bool) {
	c, ok := p.cells[species][form]
	if !ok {
		return DryCells{}, false
	}
	return *c, true
}

// Subtotal suma de todas las formas de la especie.
func (p *StockPivot) Subtotal(species string) DryCells {
	var sum DryCells
	for _, c := range p.cells[species] {
		sum = sum.plus(*c)
	}
	return sum
}

// Totals suma general por columna.
func (p *StockPivot) Totals() DryCells {
	var sum DryCells
	for _, species := range p.species {
		sum = sum.plus(p.Subtotal(species))
	}
	return sum
}

// Rows filas listas para tabla: formas de cada especie, subtotal por especie y total general.
func (p *StockPivot) Rows() []dto.StockPivotRowDTO {
	rows := make([]dto.StockPivotRowDTO, 0, len(p.species)*4+1)
	for _, species := range p.species {
		for _, form := range p.forms[species] {
			rows = append(rows, dto.StockPivotRowDTO{
				Kind:    dto.PivotRowForm,
				Species: species,
				Form:    string(form),
				Cells:   p.cells[species][form].toDTO(),
			})
		}
		rows = append(rows, dto.StockPivotRowDTO{
			Kind:    dto.PivotRowSubtotal,
			Species: species,
			Cells:   p.Subtotal(species).toDTO(),
		})
	}
	rows = append(rows, dto.StockPivotRowDTO{
		Kind:    dto.PivotRowTotal,
		Species: TotalLabel,
		Cells:   p.Totals().toDTO(),
	})
	return rows
}
