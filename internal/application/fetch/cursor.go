package fetch

import (
	"context"
	"time"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// Modos de lectura por cursor.
const (
	ModeCursor = "cursor"
	ModeOffset = "offset"
)

// CursorFetcher lee con cursor del servidor; ante cualquier falla pagina por offset con tope de registros.
type CursorFetcher struct {
	store       repository.RecordStore
	fields      []string
	pageSize    int
	fallbackMax int
	timeout     time.Duration
	log         *logger.Logger
}

// NewCursorFetcher construye el lector con la proyección de campos configurada.
func NewCursorFetcher(store repository.RecordStore, cfg config.StockConfig, timeout time.Duration, log *logger.Logger) *CursorFetcher {
	def := config.DefaultStockConfig()
	pageSize, fallbackMax := cfg.PageSize, cfg.CursorFallbackMaxRecords
	if pageSize <= 0 {
		pageSize = def.PageSize
	}
	if fallbackMax <= 0 {
		fallbackMax = def.CursorFallbackMaxRecords
	}
	return &CursorFetcher{
		store:       store,
		fields:      append([]string(nil), cfg.ShipmentFields...),
		pageSize:    pageSize,
		fallbackMax: fallbackMax,
		timeout:     timeout,
		log:         log.Component("cursor_fetch"),
	}
}

// FetchAll devuelve los registros que cumplen filter en el orden pedido.
func (f *CursorFetcher) FetchAll(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) ([]entity.Record, error) {
	res, err := f.Fetch(ctx, container, filter, order)
	return res.Records, err
}

// Fetch igual que FetchAll pero informa la estrategia usada.
func (f *CursorFetcher) Fetch(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) (Result, error) {
	recs, mode, err := Chain(ctx, f.log,
		Strategy{Name: ModeCursor, Run: func(ctx context.Context) ([]entity.Record, error) {
			return f.viaCursor(ctx, container, filter, order)
		}},
		Strategy{Name: ModeOffset, Run: func(ctx context.Context) ([]entity.Record, error) {
			return f.viaOffset(ctx, container, filter, order)
		}},
	)
	return Result{Records: recs, Mode: mode}, err
}

func (f *CursorFetcher) viaCursor(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) ([]entity.Record, error) {
	cctx, cancel := withTimeout(ctx, f.timeout)
	id, err := f.store.CreateCursor(cctx, repository.CursorRequest{
		Container: container,
		Filter:    filter,
		Order:     order,
		Fields:    f.fields,
		Size:      f.pageSize,
	})
	cancel()
	if err != nil {
		return nil, err
	}

	var all []entity.Record
	for {
		cctx, cancel := withTimeout(ctx, f.timeout)
		page, err := f.store.FetchCursor(cctx, id)
		cancel()
		if err != nil {
			f.closeCursor(ctx, id)
			return nil, err
		}
		all = append(all, page.Records...)
		if !page.Next {
			break
		}
	}
	f.closeCursor(ctx, id)
	return all, nil
}

// closeCursor cierra el cursor aunque ctx ya esté cancelado; un fallo solo se registra.
func (f *CursorFetcher) closeCursor(ctx context.Context, id string) {
	cctx, cancel := withTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()
	if err := f.store.DeleteCursor(cctx, id); err != nil {
		f.log.Warn().Err(err).Str("cursor", id).Msg("no se pudo cerrar el cursor")
	}
}

func (f *CursorFetcher) viaOffset(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) ([]entity.Record, error) {
	var all []entity.Record
	offset := 0
	for len(all) < f.fallbackMax {
		limit := min(f.pageSize, f.fallbackMax-len(all))
		cctx, cancel := withTimeout(ctx, f.timeout)
		chunk, err := f.store.Query(cctx, repository.QueryRequest{
			Container: container,
			Filter:    filter,
			Order:     order,
			Limit:     limit,
			Offset:    offset,
			Fields:    f.fields,
		})
		cancel()
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
		if len(chunk) < limit {
			break
		}
		offset += len(chunk)
	}
	if len(all) >= f.fallbackMax {
		f.log.Warn().Int("records", len(all)).Msg("tope de registros alcanzado en lectura por offset")
	}
	return all, nil
}
