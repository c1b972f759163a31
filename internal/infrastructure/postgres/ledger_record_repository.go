package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
)

var (
	_ repository.RecordStore      = (*LedgerRecordRepo)(nil)
	_ repository.LedgerRepository = (*LedgerRecordRepo)(nil)
)

// LedgerSchema DDL de la tabla del libro.
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	seq             BIGSERIAL PRIMARY KEY,
	id              UUID NOT NULL UNIQUE,
	container       TEXT NOT NULL,
	operation       TEXT NOT NULL,
	species         TEXT,
	unit            TEXT,
	qty             NUMERIC(14,0),
	kg              NUMERIC(14,3),
	production_date DATE,
	dry_state       TEXT,
	shipping_to     TEXT,
	sp_form         TEXT,
	date            DATE,
	created_by      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_ledger_records_container_date ON ledger_records (container, operation, date DESC);`

const ledgerColumns = `seq, operation, species, unit, qty, kg, production_date, dry_state, shipping_to, sp_form, date`

// orderColumns campos ordenables; cualquier otro se rechaza.
var orderColumns = map[entity.FieldCode]string{
	entity.FieldID:   "seq",
	entity.FieldDate: "date",
	entity.FieldKg:   "kg",
}

// LedgerRecordRepo almacén de registros sobre PostgreSQL (usable con pool o tx).
// No soporta cursores de servidor: los lectores caen a la paginación por offset.
type LedgerRecordRepo struct {
	q         Querier
	container string
	loc       *time.Location
	now       func() time.Time
}

// NewLedgerRecordRepository construye el adaptador. container identifica el libro al persistir;
// loc fija el día calendario de los registros sin fecha (nil = UTC).
func NewLedgerRecordRepository(q Querier, container string, loc *time.Location) *LedgerRecordRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerRecordRepo{q: q, container: container, loc: loc, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (r *LedgerRecordRepo) WithClock(now func() time.Time) *LedgerRecordRepo {
	r.now = now
	return r
}

// today día calendario actual en la zona del libro, como DATE sin hora.
func (r *LedgerRecordRepo) today() time.Time {
	y, m, d := r.now().In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnsureSchema crea la tabla si no existe.
func (r *LedgerRecordRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, LedgerSchema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Ping comprueba la conexión (usado por /health).
func (r *LedgerRecordRepo) Ping(ctx context.Context, _ string) error {
	if _, err := r.q.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Create persiste un registro ya validado.
func (r *LedgerRecordRepo) Create(ctx context.Context, rec entity.Record, createdBy string) (string, error) {
	date, err := optionalDate(rec.Value(entity.FieldDate))
	if err != nil {
		return "", err
	}
	if date == nil {
		today := r.today()
		date = &today
	}
	produced, err := optionalDate(rec.Value(entity.FieldProductionDate))
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO ledger_records (id, container, operation, species, unit, qty, kg, production_date, dry_state, shipping_to, sp_form, date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.q.Exec(ctx, query,
		id, r.container, string(rec.Direction()),
		nullIfEmpty(rec.Value(entity.FieldSpecies)), nullIfEmpty(rec.Value(entity.FieldUnit)),
		rec.Number(entity.FieldQty), rec.Number(entity.FieldKg), produced,
		nullIfEmpty(rec.Value(entity.FieldDryState)), nullIfEmpty(rec.Value(entity.FieldShippingTo)),
		nullIfEmpty(rec.Value(entity.FieldSpForm)), date, nullIfEmpty(createdBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: registro duplicado", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("create ledger record: %w", err)
	}
	return id, nil
}

// Query lista registros con filtro, orden y paginación.
func (r *LedgerRecordRepo) Query(ctx context.Context, req repository.QueryRequest) ([]entity.Record, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_records WHERE container = $1`
	args := []any{req.Container}
	pos := 2
	if req.Filter.Direction != entity.DirectionUnset {
		query += fmt.Sprintf(" AND operation = $%d", pos)
		args = append(args, string(req.Filter.Direction))
		pos++
	}
	if req.Filter.DateFrom != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *req.Filter.DateFrom)
		pos++
	}
	if req.Filter.DateTo != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *req.Filter.DateTo)
		pos++
	}
	if !req.Order.IsZero() {
		col, ok := orderColumns[req.Order.Field]
		if !ok {
			return nil, fmt.Errorf("%w: orden por %q", domain.ErrInvalidInput, req.Order.Field)
		}
		dir := "ASC"
		if req.Order.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", col, dir)
	}
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, req.Limit)
		pos++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", pos)
		args = append(args, req.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger records: %w", err)
	}
	defer rows.Close()

	var list []entity.Record
	for rows.Next() {
		var (
			seq                                         int64
			operation                                   string
			species, unit, dryState, shippingTo, spForm *string
			qty, kg                                     decimal.NullDecimal
			productionDate, date                        *time.Time
		)
		if err := rows.Scan(&seq, &operation, &species, &unit, &qty, &kg,
			&productionDate, &dryState, &shippingTo, &spForm, &date); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		rec := entity.Record{
			entity.FieldID:             {Value: strconv.FormatInt(seq, 10)},
			entity.FieldOperation:      {Value: operation},
			entity.FieldSpecies:        {Value: derefString(species)},
			entity.FieldUnit:           {Value: derefString(unit)},
			entity.FieldQty:            {Value: nullDecimalString(qty)},
			entity.FieldKg:             {Value: nullDecimalString(kg)},
			entity.FieldProductionDate: {Value: dateString(productionDate)},
			entity.FieldDryState:       {Value: derefString(dryState)},
			entity.FieldShippingTo:     {Value: derefString(shippingTo)},
			entity.FieldSpForm:         {Value: derefString(spForm)},
			entity.FieldDate:           {Value: dateString(date)},
		}
		list = append(list, project(rec, req.Fields))
	}
	return list, rows.Err()
}

// CreateCursor no soportado.
func (r *LedgerRecordRepo) CreateCursor(context.Context, repository.CursorRequest) (string, error) {
	return "", domain.ErrCursorUnsupported
}

// FetchCursor no soportado.
func (r *LedgerRecordRepo) FetchCursor(context.Context, string) (repository.CursorPage, error) {
	return repository.CursorPage{}, domain.ErrCursorUnsupported
}

// DeleteCursor no soportado.
func (r *LedgerRecordRepo) DeleteCursor(context.Context, string) error {
	return domain.ErrCursorUnsupported
}

// project deja solo los campos pedidos; sin proyección devuelve el registro completo.
func project(rec entity.Record, fields []string) entity.Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(entity.Record, len(fields))
	for _, f := range fields {
		code := entity.FieldCode(strings.TrimSpace(f))
		if v, ok := rec.Get(code); ok {
			out[code] = v
		}
	}
	return out
}

func optionalDate(v string) (*time.Time, error) {
	v = entity.NormalizeDate(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDate, v)
	}
	return &t, nil
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(entity.DateLayout)
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
