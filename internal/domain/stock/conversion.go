package stock

import (
	"fmt"
	"sort"

	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ConversionTable kg por unidad de cada forma de empaque. Inmutable tras construirse.
type ConversionTable struct {
	coef map[entity.Form]decimal.Decimal
}

// NewConversionTable copia el mapa recibido; coeficientes no positivos se ignoran.
func NewConversionTable(coefficients map[entity.Form]decimal.Decimal) ConversionTable {
	t := ConversionTable{coef: make(map[entity.Form]decimal.Decimal, len(coefficients))}
	for form, c := range coefficients {
		if form == "" || !c.IsPositive() {
			continue
		}
		t.coef[form] = c
	}
	return t
}

// ConversionTableOf construye la tabla a partir de claves de texto (configuración).
func ConversionTableOf(coefficients map[string]decimal.Decimal) ConversionTable {
	m := make(map[entity.Form]decimal.Decimal, len(coefficients))
	for k, v := range coefficients {
		m[entity.Form(k)] = v
	}
	return NewConversionTable(m)
}

// Coefficient devuelve el coeficiente de la forma; false si no existe.
func (t ConversionTable) Coefficient(form entity.Form) (decimal.Decimal, bool) {
	c, ok := t.coef[form]
	return c, ok
}

// WeightFromQuantity kg = qty × coeficiente.
func (t ConversionTable) WeightFromQuantity(qty decimal.Decimal, form entity.Form) (decimal.Decimal, error) {
	c, ok := t.Coefficient(form)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrNoCoefficient, form)
	}
	return qty.Mul(c), nil
}

// QuantityFromWeight unidades enteras = trunc(kg / coeficiente) hacia cero, más el resto en kg.
func (t ConversionTable) QuantityFromWeight(kg decimal.Decimal, form entity.Form) (int64, decimal.Decimal, error) {
	c, ok := t.Coefficient(form)
	if !ok {
		return 0, decimal.Zero, fmt.Errorf("%w: %q", domain.ErrNoCoefficient, form)
	}
	units := kg.Div(c).Truncate(0)
	rem := kg.Sub(units.Mul(c))
	return units.IntPart(), rem, nil
}

// Forms orden de columnas para cantidades: box, bundle, loose, y luego el resto alfabéticamente.
func (t ConversionTable) Forms() []entity.Form {
	return t.ordered([]entity.Form{entity.FormBox, entity.FormBundle, entity.FormLoose})
}

// PivotOrder orden de filas del pivote por peso: loose, bundle, box, y luego el resto.
func (t ConversionTable) PivotOrder() []entity.Form {
	return t.ordered([]entity.Form{entity.FormLoose, entity.FormBundle, entity.FormBox})
}

func (t ConversionTable) ordered(head []entity.Form) []entity.Form {
	out := make([]entity.Form, 0, len(t.coef))
	seen := make(map[entity.Form]bool, len(head))
	for _, f := range head {
		seen[f] = true
		if _, ok := t.coef[f]; ok {
			out = append(out, f)
		}
	}
	var rest []entity.Form
	for f := range t.coef {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}
