package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/pkg/config"
)

var _ repository.RecordStore = (*Client)(nil)

const (
	recordsPath = "/k/v1/records.json"
	cursorPath  = "/k/v1/records/cursor.json"
	tokenHeader = "X-Cybozu-API-Token"
)

// Client adaptador REST (resty) del almacén remoto paginado de registros.
type Client struct {
	http *resty.Client
}

// NewClient construye el cliente con la URL base, el token de API y el timeout de la configuración.
func NewClient(cfg config.StoreConfig) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.APIToken != "" {
		c.SetHeader(tokenHeader, cfg.APIToken)
	}
	if cfg.RequestTimeout > 0 {
		c.SetTimeout(cfg.RequestTimeout)
	}
	return &Client{http: c}
}

// apiError cuerpo de error del almacén.
type apiError struct {
	Code    string `json:"code"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// wireField valor tal como llega del almacén; value puede ser texto, número o estructura.
type wireField struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type recordsResponse struct {
	Records    []map[string]wireField `json:"records"`
	TotalCount *string                `json:"totalCount"`
}

type createCursorResponse struct {
	ID         string `json:"id"`
	TotalCount string `json:"totalCount"`
}

type cursorPageResponse struct {
	Records []map[string]wireField `json:"records"`
	Next    bool                   `json:"next"`
}

// Query GET /k/v1/records.json con la consulta renderizada.
func (c *Client) Query(ctx context.Context, req repository.QueryRequest) ([]entity.Record, error) {
	params := url.Values{}
	params.Set("app", req.Container)
	params.Set("query", BuildQuery(req.Filter, req.Order, req.Limit, req.Offset))
	for i, f := range req.Fields {
		params.Set(fmt.Sprintf("fields[%d]", i), f)
	}

	out := new(recordsResponse)
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(out).
		SetError(apiErr).
		Get(recordsPath)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	if err := checkStatus(resp, apiErr); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return decodeRecords(out.Records), nil
}

// CreateCursor POST /k/v1/records/cursor.json.
func (c *Client) CreateCursor(ctx context.Context, req repository.CursorRequest) (string, error) {
	body := map[string]any{
		"app":   req.Container,
		"query": BuildQuery(req.Filter, req.Order, 0, 0),
		"size":  req.Size,
	}
	if len(req.Fields) > 0 {
		body["fields"] = req.Fields
	}

	out := new(createCursorResponse)
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		SetError(apiErr).
		Post(cursorPath)
	if err != nil {
		return "", fmt.Errorf("create cursor: %w", err)
	}
	if err := checkStatus(resp, apiErr); err != nil {
		return "", fmt.Errorf("create cursor: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create cursor: %w: respuesta sin id", domain.ErrStoreUnavailable)
	}
	return out.ID, nil
}

// FetchCursor GET /k/v1/records/cursor.json?id=.
func (c *Client) FetchCursor(ctx context.Context, cursorID string) (repository.CursorPage, error) {
	out := new(cursorPageResponse)
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", cursorID).
		SetResult(out).
		SetError(apiErr).
		Get(cursorPath)
	if err != nil {
		return repository.CursorPage{}, fmt.Errorf("fetch cursor: %w", err)
	}
	if err := checkStatus(resp, apiErr); err != nil {
		return repository.CursorPage{}, fmt.Errorf("fetch cursor: %w", err)
	}
	return repository.CursorPage{Records: decodeRecords(out.Records), Next: out.Next}, nil
}

// DeleteCursor DELETE /k/v1/records/cursor.json.
func (c *Client) DeleteCursor(ctx context.Context, cursorID string) error {
	apiErr := new(apiError)
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"id": cursorID}).
		SetError(apiErr).
		Delete(cursorPath)
	if err != nil {
		return fmt.Errorf("delete cursor: %w", err)
	}
	if err := checkStatus(resp, apiErr); err != nil {
		return fmt.Errorf("delete cursor: %w", err)
	}
	return nil
}

func checkStatus(resp *resty.Response, apiErr *apiError) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	code := apiErr.Code
	if code == "" {
		code = strconv.Itoa(resp.StatusCode())
	}
	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%w: status=%d code=%s message=%s", domain.ErrStoreUnavailable, resp.StatusCode(), code, msg)
}

func decodeRecords(raw []map[string]wireField) []entity.Record {
	out := make([]entity.Record, 0, len(raw))
	for _, r := range raw {
		rec := make(entity.Record, len(r))
		for code, f := range r {
			rec[entity.FieldCode(code)] = &entity.Field{Value: rawValue(f.Value)}
		}
		out = append(out, rec)
	}
	return out
}

// rawValue texto del valor; valores no textuales se conservan como JSON.
func rawValue(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// BuildQuery renderiza filtro, orden y paginación al lenguaje de consulta del almacén.
func BuildQuery(filter entity.QueryFilter, order entity.SortOrder, limit, offset int) string {
	var conds []string
	if filter.Direction != entity.DirectionUnset {
		conds = append(conds, fmt.Sprintf(`%s in ("%s")`, entity.FieldOperation, EscapeValue(string(filter.Direction))))
	}
	if filter.DateFrom != nil {
		conds = append(conds, fmt.Sprintf(`%s >= "%s"`, entity.FieldDate, filter.DateFrom.Format(entity.DateLayout)))
	}
	if filter.DateTo != nil {
		conds = append(conds, fmt.Sprintf(`%s <= "%s"`, entity.FieldDate, filter.DateTo.Format(entity.DateLayout)))
	}

	var b strings.Builder
	b.WriteString(strings.Join(conds, " and "))
	if !order.IsZero() {
		dir := "asc"
		if order.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, " order by %s %s", order.Field, dir)
	}
	if limit > 0 {
		fmt.Fprintf(&b, " limit %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " offset %d", offset)
	}
	return strings.TrimSpace(b.String())
}

// EscapeValue escapa barra invertida y comillas dobles para literales entre comillas.
func EscapeValue(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}

// Ping comprueba que el almacén responde (usado por /health).
func (c *Client) Ping(ctx context.Context, container string) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.Query(cctx, repository.QueryRequest{Container: container, Limit: 1})
	return err
}
