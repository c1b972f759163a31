package fetch

import (
	"context"
	"time"

	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/pkg/config"
	"github.com/jhoicas/woodstock-api/pkg/logger"
)

// Modos de lectura masiva, del más capaz al menos capaz.
const (
	ModeOrdered    = "order+$id+offset"
	ModeOffsetOnly = "offset-only"
	ModeLimitOnly  = "limit-only"
)

// BulkFetcher lee un contenedor completo degradando la consulta si el almacén la rechaza.
// Las páginas se piden de a una, en secuencia.
type BulkFetcher struct {
	store     repository.RecordStore
	pageSize  int
	maxOffset int
	timeout   time.Duration
	log       *logger.Logger
}

// NewBulkFetcher construye el lector; timeout aplica a cada llamada al almacén.
func NewBulkFetcher(store repository.RecordStore, cfg config.StockConfig, timeout time.Duration, log *logger.Logger) *BulkFetcher {
	def := config.DefaultStockConfig()
	pageSize, maxOffset := cfg.PageSize, cfg.MaxOffset
	if pageSize <= 0 {
		pageSize = def.PageSize
	}
	if maxOffset <= 0 {
		maxOffset = def.MaxOffset
	}
	return &BulkFetcher{
		store:     store,
		pageSize:  pageSize,
		maxOffset: maxOffset,
		timeout:   timeout,
		log:       log.Component("bulk_fetch"),
	}
}

// FetchAll devuelve todos los registros del contenedor que cumplen filter.
func (f *BulkFetcher) FetchAll(ctx context.Context, container string, filter entity.QueryFilter) ([]entity.Record, error) {
	res, err := f.Fetch(ctx, container, filter)
	return res.Records, err
}

// Fetch igual que FetchAll pero informa la estrategia usada.
func (f *BulkFetcher) Fetch(ctx context.Context, container string, filter entity.QueryFilter) (Result, error) {
	byID := entity.SortOrder{Field: entity.FieldID}
	recs, mode, err := Chain(ctx, logger.FromZerolog(f.log.With().Str("container", container).Logger()),
		Strategy{Name: ModeOrdered, Run: func(ctx context.Context) ([]entity.Record, error) {
			return f.pageAll(ctx, container, filter, byID)
		}},
		Strategy{Name: ModeOffsetOnly, Run: func(ctx context.Context) ([]entity.Record, error) {
			return f.pageAll(ctx, container, filter, entity.SortOrder{})
		}},
		Strategy{Name: ModeLimitOnly, Run: func(ctx context.Context) ([]entity.Record, error) {
			return f.query(ctx, repository.QueryRequest{Container: container, Filter: filter, Limit: f.pageSize})
		}},
	)
	return Result{Records: recs, Mode: mode}, err
}

// pageAll pagina hasta una página corta o hasta superar el tope de offset.
func (f *BulkFetcher) pageAll(ctx context.Context, container string, filter entity.QueryFilter, order entity.SortOrder) ([]entity.Record, error) {
	var all []entity.Record
	offset := 0
	for {
		chunk, err := f.query(ctx, repository.QueryRequest{
			Container: container,
			Filter:    filter,
			Order:     order,
			Limit:     f.pageSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
		if len(chunk) < f.pageSize {
			return all, nil
		}
		offset += f.pageSize
		if offset > f.maxOffset {
			f.log.Warn().Int("offset", offset).Int("records", len(all)).Msg("tope de offset alcanzado, lectura truncada")
			return all, nil
		}
	}
}

func (f *BulkFetcher) query(ctx context.Context, req repository.QueryRequest) ([]entity.Record, error) {
	cctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()
	return f.store.Query(cctx, req)
}
