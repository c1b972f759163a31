package stock

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
)

// DryingTable días de secado requeridos por especie.
type DryingTable struct {
	days map[string]int
}

// NewDryingTable copia el mapa especie → días.
func NewDryingTable(days map[string]int) DryingTable {
	t := DryingTable{days: make(map[string]int, len(days))}
	for species, d := range days {
		t.days[NormalizeLabel(species)] = d
	}
	return t
}

// Duration días de secado de la especie.
func (t DryingTable) Duration(species string) (int, bool) {
	d, ok := t.days[NormalizeLabel(species)]
	return d, ok
}

// InferDryState calcula dry/not_dry a partir de la fecha de producción.
// Devuelve false cuando no se puede calcular (fecha o especie vacías, especie sin regla);
// error solo si la fecha no es interpretable.
func (t DryingTable) InferDryState(productionDate, species string, now time.Time, loc *time.Location) (entity.DryState, bool, error) {
	productionDate = entity.NormalizeDate(productionDate)
	species = strings.TrimSpace(species)
	if productionDate == "" || species == "" {
		return "", false, nil
	}
	days, ok := t.Duration(species)
	if !ok {
		return "", false, nil
	}
	if loc == nil {
		loc = now.Location()
	}
	produced, err := time.ParseInLocation(entity.DateLayout, productionDate, loc)
	if err != nil {
		return "", false, fmt.Errorf("%w: %q", domain.ErrInvalidDate, productionDate)
	}
	ready := produced.AddDate(0, 0, days)
	if !now.In(loc).Before(ready) {
		return entity.DryStateDry, true, nil
	}
	return entity.DryStateNotDry, true, nil
}
