package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/woodstock-api/internal/application/dto"
	"github.com/jhoicas/woodstock-api/internal/scheduler"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

type countingStock struct {
	calls atomic.Int32
	fail  bool
}

func (c *countingStock) Reload(ctx context.Context) *dto.StockReportDTO {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		panic("la recarga debe tener plazo")
	}
	if c.fail {
		return &dto.StockReportDTO{Error: &dto.ErrorPanelDTO{Title: "x", Detail: "boom"}}
	}
	return &dto.StockReportDTO{RecordCount: 3}
}

type countingShipments struct{ calls atomic.Int32 }

func (c *countingShipments) Reload(context.Context) *dto.ShipmentReportDTO {
	c.calls.Add(1)
	return &dto.ShipmentReportDTO{}
}

func TestRefresh_RecargaAmbos(t *testing.T) {
	st, sh := &countingStock{}, &countingShipments{}
	s := scheduler.New("*/15 * * * *", nil, st, sh, logger.Nop())

	s.Refresh()

	assert.EqualValues(t, 1, st.calls.Load())
	assert.EqualValues(t, 1, sh.calls.Load())
}

func TestRefresh_FalloDeExistenciasNoCortaDespachos(t *testing.T) {
	st, sh := &countingStock{fail: true}, &countingShipments{}
	s := scheduler.New("", nil, st, sh, logger.Nop())

	s.Refresh()

	assert.EqualValues(t, 1, sh.calls.Load())
}

func TestRefresh_SinReportes(t *testing.T) {
	s := scheduler.New("", nil, nil, nil, logger.Nop())
	assert.NotPanics(t, s.Refresh)
}

func TestStart_ExpresionInvalida(t *testing.T) {
	s := scheduler.New("cada rato", nil, &countingStock{}, nil, logger.Nop())
	assert.Error(t, s.Start())
}

func TestStart_Deshabilitado(t *testing.T) {
	s := scheduler.New("", nil, &countingStock{}, nil, logger.Nop())
	require.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestStartStop(t *testing.T) {
	st := &countingStock{}
	s := scheduler.New("@every 1h", time.UTC, st, nil, logger.Nop())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.EqualValues(t, 0, st.calls.Load(), "no debe ejecutarse antes de su hora")
}
