package recordstore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/woodstock-api/internal/domain"
	"github.com/jhoicas/woodstock-api/internal/domain/entity"
	"github.com/jhoicas/woodstock-api/internal/domain/repository"
	"github.com/jhoicas/woodstock-api/internal/infrastructure/recordstore"
	"github.com/jhoicas/woodstock-api/pkg/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *recordstore.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return recordstore.NewClient(config.StoreConfig{BaseURL: srv.URL + "/", APIToken: "tok", RequestTimeout: 2 * time.Second})
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests BuildQuery
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "order by $id asc limit 500 offset 1000",
		recordstore.BuildQuery(entity.QueryFilter{}, entity.SortOrder{Field: entity.FieldID}, 500, 1000))
	assert.Equal(t, "limit 500", recordstore.BuildQuery(entity.QueryFilter{}, entity.SortOrder{}, 500, 0))

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	q := recordstore.BuildQuery(
		entity.QueryFilter{Direction: entity.DirectionOUT, DateFrom: &from, DateTo: &to},
		entity.SortOrder{Field: entity.FieldDate, Desc: true}, 0, 0)
	assert.Equal(t, `operation in ("OUT") and date >= "2026-04-01" and date <= "2026-10-17" order by date desc`, q)
}

func TestEscapeValue(t *testing.T) {
	assert.Equal(t, `a\"b\\c`, recordstore.EscapeValue(`a"b\c`))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Client
// ──────────────────────────────────────────────────────────────────────────────

func TestQuery_DecodificaRegistros(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/k/v1/records.json", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-Cybozu-API-Token"))
		assert.Equal(t, "42", r.URL.Query().Get("app"))
		assert.Equal(t, "limit 2", r.URL.Query().Get("query"))
		assert.Equal(t, "kg", r.URL.Query().Get("fields[0]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[
			{"$id":{"type":"__ID__","value":"1"},"kg":{"type":"NUMBER","value":"-220"}},
			{"$id":{"type":"__ID__","value":"2"},"kg":{"type":"NUMBER","value":null},"tags":{"type":"CHECK_BOX","value":["a"]}}
		],"totalCount":null}`))
	})

	recs, err := c.Query(context.Background(), repository.QueryRequest{Container: "42", Limit: 2, Fields: []string{"kg"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "-220", recs[0].Value(entity.FieldKg))
	assert.Equal(t, "", recs[1].Value(entity.FieldKg))
	assert.Equal(t, `["a"]`, recs[1].Value("tags"))
}

func TestQuery_ErrorDelAlmacen(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"GAIA_IQ11","id":"x","message":"order by no permitido"}`))
	})

	_, err := c.Query(context.Background(), repository.QueryRequest{Container: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "GAIA_IQ11")
}

func TestCursor_CicloCompleto(t *testing.T) {
	var created map[string]any
	deleted := false
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/k/v1/records/cursor.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_, _ = w.Write([]byte(`{"id":"cur-9","totalCount":"1"}`))
		case http.MethodGet:
			assert.Equal(t, "cur-9", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"records":[{"shipping_to":{"type":"SINGLE_LINE_TEXT","value":"A"}}],"next":false}`))
		case http.MethodDelete:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "cur-9", body["id"])
			deleted = true
			_, _ = w.Write([]byte(`{}`))
		}
	})

	id, err := c.CreateCursor(context.Background(), repository.CursorRequest{
		Container: "7", Fields: []string{"shipping_to", "date"}, Size: 500,
		Filter: entity.QueryFilter{Direction: entity.DirectionOUT},
	})
	require.NoError(t, err)
	assert.Equal(t, "cur-9", id)
	assert.Equal(t, "7", created["app"])
	assert.Equal(t, float64(500), created["size"])
	assert.Equal(t, `operation in ("OUT")`, created["query"])

	page, err := c.FetchCursor(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, page.Next)
	assert.Equal(t, "A", page.Records[0].Value(entity.FieldShippingTo))

	require.NoError(t, c.DeleteCursor(context.Background(), id))
	assert.True(t, deleted)
}

func TestQuery_TimeoutDelContexto(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Query(ctx, repository.QueryRequest{Container: "1"})
	assert.Error(t, err)
}
