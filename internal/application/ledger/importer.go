package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// importFields campos editables del formulario; la primera fila del CSV debe usar estos códigos.
var importFields = []entity.FieldCode{
	entity.FieldOperation,
	entity.FieldSpecies,
	entity.FieldUnit,
	entity.FieldQty,
	entity.FieldKg,
	entity.FieldProductionDate,
	entity.FieldDryState,
	entity.FieldShippingTo,
	entity.FieldSpForm,
	entity.FieldDate,
}

// ImportRejection fila rechazada por la validación o por el guardado.
type ImportRejection struct {
	Line   int
	Reason string
}

// ImportResult resumen de una importación.
type ImportResult struct {
	Imported int
	Rejected []ImportRejection
}

// Importer carga registros desde CSV pasando cada fila por el mismo flujo que el formulario:
// derivación al mostrar, inferencia de secado y validación final antes de persistir.
type Importer struct {
	events *EventProcessor
	log    *logger.Logger
}

// NewImporter construye el importador. El procesador debe tener libro local.
func NewImporter(events *EventProcessor, log *logger.Logger) *Importer {
	return &Importer{events: events, log: log.Component("importer")}
}

// Import lee el CSV completo. Un error de formato corta la importación; una fila rechazada no.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	if im.events == nil || im.events.ledger == nil {
		return res, errors.New("importación sin libro local configurado")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("leer cabecera CSV: %w", err)
	}
	columns, err := importColumns(header)
	if err != nil {
		return res, err
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("CSV fila %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ev := im.prepare(ctx, recordFromRow(columns, row))
		out := im.events.Process(ctx, ev)
		if out.Error != "" {
			res.Rejected = append(res.Rejected, ImportRejection{Line: line, Reason: out.Error})
			im.log.Warn().Int("line", line).Str("reason", out.Error).Msg("fila rechazada")
			continue
		}
		res.Imported++
	}
	im.log.Info().Int("imported", res.Imported).Int("rejected", len(res.Rejected)).Msg("importación terminada")
	return res, nil
}

// prepare deriva los campos como lo haría el formulario y devuelve el evento de envío.
func (im *Importer) prepare(ctx context.Context, rec entity.Record) dto.RecordEvent {
	outbound := rec.Direction().IsOutbound()
	// entrada sin cantidad: se respeta el peso del archivo
	if outbound || rec.Value(entity.FieldQty) != "" {
		rec = im.events.Process(ctx, dto.RecordEvent{Type: dto.EventRecordShown, Record: rec}).Record
	}
	if !outbound && rec.Value(entity.FieldDryState) == "" {
		rec = im.events.Process(ctx, dto.RecordEvent{
			Type:   dto.EventFieldChanged,
			Field:  string(entity.FieldProductionDate),
			Record: rec,
		}).Record
	}
	return dto.RecordEvent{Type: dto.EventRecordSubmit, Record: rec}
}

func importColumns(header []string) ([]entity.FieldCode, error) {
	known := make(map[entity.FieldCode]bool, len(importFields))
	for _, f := range importFields {
		known[f] = true
	}
	seen := make(map[entity.FieldCode]bool, len(header))
	cols := make([]entity.FieldCode, len(header))
	for i, h := range header {
		code := entity.FieldCode(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))))
		if !known[code] {
			return nil, fmt.Errorf("%w: columna desconocida %q", domain.ErrInvalidInput, h)
		}
		if seen[code] {
			return nil, fmt.Errorf("%w: columna repetida %q", domain.ErrInvalidInput, h)
		}
		seen[code] = true
		cols[i] = code
	}
	if !seen[entity.FieldOperation] {
		return nil, fmt.Errorf("%w: falta la columna %q", domain.ErrInvalidInput, entity.FieldOperation)
	}
	return cols, nil
}

// recordFromRow arma un registro con todos los campos del formulario; las columnas ausentes quedan vacías.
func recordFromRow(cols []entity.FieldCode, row []string) entity.Record {
	rec := make(entity.Record, len(importFields))
	for _, f := range importFields {
		rec[f] = &entity.Field{}
	}
	for i, code := range cols {
		if i < len(row) {
			rec[code].Value = strings.TrimSpace(row[i])
		}
	}
	return rec
}
