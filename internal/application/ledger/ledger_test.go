package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/application/ledger"
	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func testConfig() config.StockConfig {
	cfg := config.DefaultStockConfig()
	cfg.AdminUserCodes = []string{"boss"}
	cfg.Location = time.UTC
	return cfg
}

func newEngine() *ledger.DerivationEngine {
	return ledger.NewDerivationEngine(testConfig(), logger.Nop()).WithClock(func() time.Time { return testNow })
}

// newRecord construye un registro con todos los campos del esquema.
func newRecord(kv map[entity.FieldCode]string) entity.Record {
	rec := entity.Record{}
	for _, code := range []entity.FieldCode{
		entity.FieldOperation, entity.FieldSpecies, entity.FieldUnit, entity.FieldQty, entity.FieldKg,
		entity.FieldProductionDate, entity.FieldDryState, entity.FieldShippingTo, entity.FieldSpForm,
	} {
		rec[code] = &entity.Field{}
	}
	for k, v := range kv {
		rec[k] = &entity.Field{Value: v}
	}
	return rec
}

func changed(field entity.FieldCode) ledger.Trigger {
	return ledger.Trigger{Kind: ledger.TriggerFieldChanged, Field: field}
}

type fakeIdentity struct {
	code string
	err  error
}

func (f fakeIdentity) CurrentUserCode(context.Context) (string, error) { return f.code, f.err }

type fakeLedgerRepo struct {
	saved     []entity.Record
	createdBy string
	err       error
}

func (f *fakeLedgerRepo) Create(_ context.Context, rec entity.Record, createdBy string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, rec.Clone())
	f.createdBy = createdBy
	return "rec-1", nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests DerivationEngine
// ──────────────────────────────────────────────────────────────────────────────

func TestDerivation_EntradaCalculaPeso(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldUnit: "box", entity.FieldQty: "10",
	})

	e.Apply(rec, changed(entity.FieldQty))
	assert.Equal(t, "2200", rec.Value(entity.FieldKg))

	rec.Set(entity.FieldUnit, "bundle")
	e.Apply(rec, changed(entity.FieldUnit))
	assert.Equal(t, "70", rec.Value(entity.FieldKg))
}

func TestDerivation_CambioASalida(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldUnit: "box", entity.FieldQty: "10",
		entity.FieldProductionDate: "2025-01-01", entity.FieldDryState: "not_dry",
	})
	e.Apply(rec, changed(entity.FieldQty))
	require.Equal(t, "2200", rec.Value(entity.FieldKg))

	rec.Set(entity.FieldOperation, "OUT")
	e.Apply(rec, changed(entity.FieldOperation))

	assert.Equal(t, "10", rec.Value(entity.FieldQty))
	assert.Equal(t, "2200", rec.Value(entity.FieldKg), "el peso no cambia hasta que se edite")
	assert.Equal(t, "", rec.Value(entity.FieldProductionDate))
	assert.Equal(t, "dry", rec.Value(entity.FieldDryState))
	for _, code := range []entity.FieldCode{entity.FieldQty, entity.FieldProductionDate, entity.FieldDryState} {
		f, _ := rec.Get(code)
		assert.True(t, f.Disabled, "%s debe quedar bloqueado en salidas", code)
	}
}

func TestDerivation_SalidaPesoAutoritativo(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldUnit: "box", entity.FieldKg: "-2300", entity.FieldQty: "99",
	})

	e.Apply(rec, changed(entity.FieldKg))
	assert.Equal(t, "10", rec.Value(entity.FieldQty), "trunc(2300/220) = 10, el resto se descarta")
	assert.Equal(t, "-2300", rec.Value(entity.FieldKg))

	rec.Set(entity.FieldQty, "1")
	e.Apply(rec, changed(entity.FieldQty))
	assert.Equal(t, "10", rec.Value(entity.FieldQty))
	assert.Equal(t, "-2300", rec.Value(entity.FieldKg), "en salidas el peso nunca se sobreescribe")
}

func TestDerivation_VueltaAEntradaDesbloquea(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldUnit: "loose", entity.FieldKg: "5", entity.FieldQty: "3",
	})
	e.Apply(rec, ledger.Trigger{Kind: ledger.TriggerRecordShown})
	assert.Equal(t, "5", rec.Value(entity.FieldQty))

	rec.Set(entity.FieldOperation, "")
	e.Apply(rec, changed(entity.FieldOperation))
	f, _ := rec.Get(entity.FieldQty)
	assert.False(t, f.Disabled)
	assert.Equal(t, "5", rec.Value(entity.FieldKg), "qty 5 × 1")
}

func TestDerivation_PesoEnEntradaEsNoOp(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldUnit: "box", entity.FieldQty: "2", entity.FieldKg: "123",
	})
	e.Apply(rec, changed(entity.FieldKg))
	assert.Equal(t, "2", rec.Value(entity.FieldQty))
	assert.Equal(t, "123", rec.Value(entity.FieldKg))
}

func TestDerivation_FormaDesconocidaNoRecalcula(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldUnit: "", entity.FieldKg: "-440", entity.FieldQty: "7",
	})
	e.Apply(rec, changed(entity.FieldKg))
	assert.Equal(t, "7", rec.Value(entity.FieldQty))

	rec.Set(entity.FieldOperation, "IN")
	rec.Set(entity.FieldUnit, "crate")
	e.Apply(rec, changed(entity.FieldUnit))
	assert.Equal(t, "-440", rec.Value(entity.FieldKg))
}

func TestDerivation_Secado(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldSpecies: "Oak",
		entity.FieldProductionDate: testNow.AddDate(0, 0, -400).Format(entity.DateLayout),
	})
	e.Apply(rec, changed(entity.FieldProductionDate))
	assert.Equal(t, "dry", rec.Value(entity.FieldDryState))

	rec.Set(entity.FieldProductionDate, testNow.AddDate(0, 0, -10).Format(entity.DateLayout))
	e.Apply(rec, changed(entity.FieldProductionDate))
	assert.Equal(t, "not_dry", rec.Value(entity.FieldDryState))

	rec.Set(entity.FieldSpecies, "Pine")
	e.Apply(rec, changed(entity.FieldSpecies))
	assert.Equal(t, "not_dry", rec.Value(entity.FieldDryState), "especie sin regla no modifica el estado")
}

func TestDerivation_SecadoIgnoradoEnSalida(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldSpecies: "Oak", entity.FieldDryState: "dry",
		entity.FieldProductionDate: testNow.AddDate(0, 0, -10).Format(entity.DateLayout),
	})
	e.Apply(rec, changed(entity.FieldSpecies))
	assert.Equal(t, "dry", rec.Value(entity.FieldDryState))
}

func TestDerivation_FalloDejaRegistroIntacto(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldSpecies: "Oak",
		entity.FieldProductionDate: "17/10/2026", entity.FieldDryState: "unknown",
	})
	before := rec.Clone()
	assert.NotPanics(t, func() { e.Apply(rec, changed(entity.FieldProductionDate)) })
	assert.Equal(t, before, rec)
}

func TestDerivation_CamposAusentes(t *testing.T) {
	e := newEngine()
	rec := entity.Record{entity.FieldOperation: {Value: "OUT"}}
	assert.NotPanics(t, func() {
		e.Apply(rec, changed(entity.FieldOperation))
		e.Apply(rec, changed(entity.FieldKg))
		e.Apply(rec, changed(entity.FieldSpecies))
		e.Apply(nil, changed(entity.FieldQty))
	})
	assert.Len(t, rec, 1, "no se crean campos que no existen en el esquema")
}

func TestDerivation_Idempotente(t *testing.T) {
	e := newEngine()
	rec := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldUnit: "bundle", entity.FieldKg: "-50",
	})
	e.Apply(rec, changed(entity.FieldOperation))
	first := rec.Clone()
	e.Apply(rec, changed(entity.FieldOperation))
	assert.Equal(t, first, rec)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests SubmissionValidator
// ──────────────────────────────────────────────────────────────────────────────

func newValidator(id ledger.IdentityLookup) *ledger.SubmissionValidator {
	return ledger.NewSubmissionValidator(testConfig(), id, logger.Nop())
}

func TestValidate_SalidaSinPeso(t *testing.T) {
	v := newValidator(fakeIdentity{code: "u1"})
	for _, kg := range []string{"0", "-0", "", "abc"} {
		rec := newRecord(map[entity.FieldCode]string{
			entity.FieldOperation: "OUT", entity.FieldKg: kg, entity.FieldShippingTo: "A",
		})
		res := v.Validate(context.Background(), rec)
		assert.Equal(t, ledger.MsgWeightRequired, res.Error, "kg=%q", kg)
	}
}

func TestValidate_SalidaSinDestino(t *testing.T) {
	v := newValidator(fakeIdentity{code: "u1"})
	rec := newRecord(map[entity.FieldCode]string{entity.FieldOperation: "OUT", entity.FieldKg: "10"})
	assert.Equal(t, ledger.MsgDestinationRequired, v.Validate(context.Background(), rec).Error)
}

func TestValidate_NoSecoSoloAdministrador(t *testing.T) {
	rec := func() entity.Record {
		return newRecord(map[entity.FieldCode]string{
			entity.FieldOperation: "OUT", entity.FieldKg: "10", entity.FieldShippingTo: "A",
			entity.FieldDryState: "not_dry",
		})
	}

	res := newValidator(fakeIdentity{code: "u1"}).Validate(context.Background(), rec())
	assert.Equal(t, ledger.MsgNotDryShipment, res.Error)

	res = newValidator(fakeIdentity{err: errors.New("sin sesión")}).Validate(context.Background(), rec())
	assert.Equal(t, ledger.MsgNotDryShipment, res.Error, "fallo de identidad = no administrador")

	admin := rec()
	res = newValidator(fakeIdentity{code: "boss"}).Validate(context.Background(), admin)
	assert.True(t, res.OK())
	assert.Equal(t, "-10", admin.Value(entity.FieldKg))
}

func TestValidate_NormalizaSignoYEtiqueta(t *testing.T) {
	v := newValidator(nil)

	in := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldKg: "-70", entity.FieldSpecies: "Oak", entity.FieldUnit: "bundle",
	})
	require.True(t, v.Validate(context.Background(), in).OK())
	assert.Equal(t, "70", in.Value(entity.FieldKg))
	assert.Equal(t, "Oak_bundle", in.Value(entity.FieldSpForm))

	out := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "OUT", entity.FieldKg: "440", entity.FieldShippingTo: "B", entity.FieldDryState: "dry",
	})
	require.True(t, v.Validate(context.Background(), out).OK())
	assert.Equal(t, "-440", out.Value(entity.FieldKg))
	assert.Equal(t, "", out.Value(entity.FieldSpForm), "sin especie la etiqueta queda vacía")

	edited := newRecord(map[entity.FieldCode]string{
		entity.FieldOperation: "IN", entity.FieldKg: "440", entity.FieldUnit: "box", entity.FieldSpForm: "Oak_box",
	})
	require.True(t, v.Validate(context.Background(), edited).OK())
	assert.Equal(t, "", edited.Value(entity.FieldSpForm), "una etiqueta vieja se limpia al vaciar la especie")

	partial := entity.Record{
		entity.FieldOperation: {Value: "IN"},
		entity.FieldKg:        {Value: "10"},
		entity.FieldSpForm:    {Value: "Oak_box"},
	}
	require.True(t, v.Validate(context.Background(), partial).OK())
	assert.Equal(t, "Oak_box", partial.Value(entity.FieldSpForm), "sin campos especie/forma la etiqueta no se toca")
}

func TestValidate_SinOperacionSeNormalizaComoEntrada(t *testing.T) {
	v := newValidator(nil)
	rec := newRecord(map[entity.FieldCode]string{entity.FieldKg: "-35"})
	require.True(t, v.Validate(context.Background(), rec).OK())
	assert.Equal(t, "35", rec.Value(entity.FieldKg))
}

func TestValidate_RechazoNoModifica(t *testing.T) {
	v := newValidator(nil)
	rec := newRecord(map[entity.FieldCode]string{entity.FieldOperation: "OUT", entity.FieldKg: "12"})
	before := rec.Clone()
	assert.False(t, v.Validate(context.Background(), rec).OK())
	assert.Equal(t, before, rec)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests EventProcessor
// ──────────────────────────────────────────────────────────────────────────────

func newProcessor(repo *fakeLedgerRepo) *ledger.EventProcessor {
	id := fakeIdentity{code: "u1"}
	var r repository.LedgerRepository
	if repo != nil {
		r = repo
	}
	return ledger.NewEventProcessor(newEngine(), newValidator(id), r, id, logger.Nop())
}

func TestProcess_FieldChanged(t *testing.T) {
	p := newProcessor(nil)
	ev := dto.RecordEvent{
		Type:  dto.EventFieldChanged,
		Field: string(entity.FieldQty),
		Record: newRecord(map[entity.FieldCode]string{
			entity.FieldOperation: "IN", entity.FieldUnit: "box", entity.FieldQty: "3",
		}),
	}
	out := p.Process(context.Background(), ev)
	assert.Equal(t, "660", out.Record.Value(entity.FieldKg))
	assert.Empty(t, out.Error)
}

func TestProcess_SubmitPersiste(t *testing.T) {
	repo := &fakeLedgerRepo{}
	p := newProcessor(repo)
	ev := dto.RecordEvent{
		Type: dto.EventRecordSubmit,
		Record: newRecord(map[entity.FieldCode]string{
			entity.FieldOperation: "OUT", entity.FieldKg: "14", entity.FieldShippingTo: "A", entity.FieldDryState: "dry",
		}),
	}
	out := p.Process(context.Background(), ev)
	require.Empty(t, out.Error)
	assert.Equal(t, "rec-1", out.RecordID)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "-14", repo.saved[0].Value(entity.FieldKg))
	assert.Equal(t, "u1", repo.createdBy)
}

func TestProcess_SubmitRechazadoNoPersiste(t *testing.T) {
	repo := &fakeLedgerRepo{}
	p := newProcessor(repo)
	out := p.Process(context.Background(), dto.RecordEvent{
		Type:   dto.EventRecordSubmit,
		Record: newRecord(map[entity.FieldCode]string{entity.FieldOperation: "OUT"}),
	})
	assert.Equal(t, ledger.MsgWeightRequired, out.Error)
	assert.Empty(t, repo.saved)
}

func TestProcess_SubmitFalloDePersistencia(t *testing.T) {
	p := newProcessor(&fakeLedgerRepo{err: errors.New("db caída")})
	out := p.Process(context.Background(), dto.RecordEvent{
		Type:   dto.EventRecordSubmit,
		Record: newRecord(map[entity.FieldCode]string{entity.FieldOperation: "IN", entity.FieldKg: "5"}),
	})
	assert.Equal(t, ledger.MsgSaveFailed, out.Error)
}

func TestContextIdentity(t *testing.T) {
	_, err := ledger.ContextIdentity{}.CurrentUserCode(context.Background())
	assert.Error(t, err)

	code, err := ledger.ContextIdentity{}.CurrentUserCode(ledger.WithUserCode(context.Background(), "boss"))
	require.NoError(t, err)
	assert.Equal(t, "boss", code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Importer
// ──────────────────────────────────────────────────────────────────────────────

const importCSV = `operation,species,unit,qty,kg,production_date,shipping_to,date
IN,Oak,box,2,,2025-01-01,,2026-10-01
IN,Cedar,bundle,,21,2026-09-01,,2026-10-02
OUT,Oak,box,,440,,Mill A,2026-10-05
OUT,Oak,box,,,,Mill A,2026-10-06
`

func TestImporter_DerivaValidaYPersiste(t *testing.T) {
	repo := &fakeLedgerRepo{}
	im := ledger.NewImporter(newProcessor(repo), logger.Nop())

	res, err := im.Import(context.Background(), strings.NewReader(importCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Imported)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 5, res.Rejected[0].Line)
	assert.Equal(t, ledger.MsgWeightRequired, res.Rejected[0].Reason)

	require.Len(t, repo.saved, 3)
	oak, cedar, out := repo.saved[0], repo.saved[1], repo.saved[2]

	assert.Equal(t, "440", oak.Value(entity.FieldKg))
	assert.Equal(t, "dry", oak.Value(entity.FieldDryState))
	assert.Equal(t, "Oak_box", oak.Value(entity.FieldSpForm))

	assert.Equal(t, "21", cedar.Value(entity.FieldKg), "sin cantidad se respeta el peso")
	assert.Equal(t, "not_dry", cedar.Value(entity.FieldDryState))

	assert.Equal(t, "-440", out.Value(entity.FieldKg))
	assert.Equal(t, "2", out.Value(entity.FieldQty))
	assert.Equal(t, "dry", out.Value(entity.FieldDryState))
}

func TestImporter_ColumnaDesconocida(t *testing.T) {
	im := ledger.NewImporter(newProcessor(&fakeLedgerRepo{}), logger.Nop())
	_, err := im.Import(context.Background(), strings.NewReader("operation,color\nIN,red\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImporter_SinOperacion(t *testing.T) {
	im := ledger.NewImporter(newProcessor(&fakeLedgerRepo{}), logger.Nop())
	_, err := im.Import(context.Background(), strings.NewReader("species,kg\nOak,10\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImporter_SinLibro(t *testing.T) {
	im := ledger.NewImporter(newProcessor(nil), logger.Nop())
	_, err := im.Import(context.Background(), strings.NewReader(importCSV))
	assert.Error(t, err)
}
