package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-playground/internal/api/handler"
	"sql-playground/internal/config"
	"sql-playground/internal/observability"
	"sql-playground/internal/playground"
	"sql-playground/internal/store"
	"sql-playground/internal/warehouse"
	"sql-playground/pkg/router"
	"sql-playground/pkg/utils"
)

const ordersQuestion = `
table: orders.
Item  Qty  Price
=====================
pen   2    1.5
book  1    12.0
Output:
=========
Item  Total
=========
pen   3.0
book  12.0
`

var apiNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Warehouse.Dir = ":memory:"
	if mutate != nil {
		mutate(cfg)
	}

	logger := observability.Discard()
	wh, err := warehouse.Open(context.Background(), cfg.Warehouse, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wh.Close() })

	loads, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = loads.Close() })

	outputs := utils.NewOutputManager(t.TempDir())
	svc := playground.NewService(wh, playground.OptionsFromConfig(cfg),
		playground.WithLoadRecorder(loads),
		playground.WithOutputs(outputs),
		playground.WithLogger(logger),
		playground.WithClock(func() time.Time { return apiNow }))

	r := router.New()
	r.SetAccessLog(io.Discard)
	Middleware(r, cfg.Server, NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateWindow()))
	RegisterRoutes(r, handler.New(svc, loads, outputs, cfg.Warehouse.Driver, logger))
	return r.Handler()
}

func call(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func jsonBody(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t, nil)
	rec, out := call(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "sqlite", out["driver"])
	assert.Equal(t, "customer_data", out["defaultDataset"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestParseQuestionEndpoint(t *testing.T) {
	h := newTestAPI(t, nil)

	rec, out := call(t, h, http.MethodPost, "/api/v1/questions/parse",
		jsonBody(t, map[string]string{"questionText": ordersQuestion}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	parsed := out["parsed"].(map[string]interface{})
	assert.Equal(t, "orders", parsed["tableName"])
	assert.Equal(t, "orders_20261019", parsed["fullTableName"])
	assert.Equal(t, float64(2), parsed["rowCount"])
	assert.Equal(t, float64(3), parsed["columnCount"])
	assert.NotNil(t, parsed["expectedOutput"])

	tests := []struct {
		name   string
		body   string
		status int
		code   string
		stage  string
	}{
		{"invalid json", "{", http.StatusBadRequest, "BAD_REQUEST", ""},
		{"missing text", `{}`, http.StatusBadRequest, "BAD_REQUEST", ""},
		{"unparseable", jsonBody(t, map[string]string{"questionText": "nothing"}), http.StatusBadRequest, "PARSE_ERROR", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := call(t, h, http.MethodPost, "/api/v1/questions/parse", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.code, out["code"])
			if tt.stage != "" {
				assert.Equal(t, tt.stage, out["stage"])
			}
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestParseBatchEndpoint(t *testing.T) {
	h := newTestAPI(t, nil)

	rec, out := call(t, h, http.MethodPost, "/api/v1/questions/batch",
		jsonBody(t, map[string][]string{"questions": {ordersQuestion, "nothing"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := out["results"].([]interface{})
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]interface{})["success"])
	assert.Equal(t, "PARSE_ERROR", results[1].(map[string]interface{})["code"])

	rec, out = call(t, h, http.MethodPost, "/api/v1/questions/batch", `{"questions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", out["code"])
}

func TestTableLifecycle(t *testing.T) {
	h := newTestAPI(t, nil)

	rec, out := call(t, h, http.MethodPost, "/api/v1/tables",
		jsonBody(t, map[string]string{"questionText": ordersQuestion}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Table local.customer_data.orders_20261019 created with 2 rows", out["message"])
	loadID := out["loadId"].(string)
	require.NotEmpty(t, loadID)
	wh := out["warehouse"].(map[string]interface{})
	assert.Equal(t, "local.customer_data.orders_20261019", wh["fullTablePath"])
	assert.Equal(t, float64(2), wh["rowsInserted"])

	t.Run("query", func(t *testing.T) {
		rec, out := call(t, h, http.MethodPost, "/api/v1/query",
			jsonBody(t, map[string]string{"query": "SELECT Item, Qty * Price AS total FROM customer_data.orders_20261019 ORDER BY Item"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, float64(2), out["rowCount"])
		rows := out["rows"].([]interface{})
		assert.Equal(t, "book", rows[0].(map[string]interface{})["Item"])
		assert.NotEmpty(t, out["jobId"])
	})

	t.Run("bad sql", func(t *testing.T) {
		rec, out := call(t, h, http.MethodPost, "/api/v1/query", `{"query":"SELEKT 1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "query", out["stage"])
	})

	t.Run("catalog", func(t *testing.T) {
		rec, out := call(t, h, http.MethodGet, "/api/v1/datasets", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"customer_data"`)
		_ = out

		rec, out = call(t, h, http.MethodGet, "/api/v1/datasets/customer_data/tables", "")
		require.Equal(t, http.StatusOK, rec.Code)
		tables := out["tables"].([]interface{})
		require.Len(t, tables, 1)
		assert.Equal(t, "orders_20261019", tables[0].(map[string]interface{})["id"])

		rec, out = call(t, h, http.MethodGet, "/api/v1/tables/customer_data/orders_20261019/schema", "")
		require.Equal(t, http.StatusOK, rec.Code)
		table := out["table"].(map[string]interface{})
		assert.Equal(t, float64(2), table["numRows"])
		assert.Len(t, table["schema"], 3)

		rec, out = call(t, h, http.MethodGet, "/api/v1/tables/customer_data/orders_20261019/sample?limit=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), out["rowCount"])

		rec, _ = call(t, h, http.MethodGet, "/api/v1/tables/customer_data/orders_20261019/sample?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, out = call(t, h, http.MethodGet, "/api/v1/tables/customer_data/missing/schema", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", out["code"])
	})

	t.Run("import", func(t *testing.T) {
		req := jsonBody(t, playground.ImportRequest{
			SourceTable:        "customer_data.orders_20261019",
			DestinationDataset: "archive",
			DestinationTable:   "orders",
		})
		rec, out := call(t, h, http.MethodPost, "/api/v1/import", req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "archive.orders", out["destinationTable"])

		rec, out = call(t, h, http.MethodPost, "/api/v1/import", req)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "import", out["stage"])
	})

	t.Run("loads", func(t *testing.T) {
		rec, out := call(t, h, http.MethodGet, "/api/v1/loads", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, out["loads"], 1)

		rec, out = call(t, h, http.MethodGet, "/api/v1/loads/"+loadID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "loaded", out["load"].(map[string]interface{})["status"])

		rec, out = call(t, h, http.MethodGet, "/api/v1/loads/"+loadID+"/errors", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), out["count"])

		rec, out = call(t, h, http.MethodGet, "/api/v1/loads/unknown", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", out["code"])
	})

	t.Run("download", func(t *testing.T) {
		rec, _ := call(t, h, http.MethodGet, "/api/v1/download/"+loadID+"/input_data.csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "input_data.csv")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Item,Qty,Price"), rec.Body.String())

		rec, _ = call(t, h, http.MethodGet, "/api/v1/download/"+loadID+"/nope.csv", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec, out := call(t, h, http.MethodDelete, "/api/v1/tables/customer_data/orders_20261019", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, out["success"])

		rec, _ = call(t, h, http.MethodDelete, "/api/v1/tables/customer_data/orders_20261019", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateTableFailureReportsLoad(t *testing.T) {
	h := newTestAPI(t, nil)

	rec, out := call(t, h, http.MethodPost, "/api/v1/tables", `{"questionText":"nothing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "parse", out["stage"])
	loadID, _ := out["loadId"].(string)
	require.NotEmpty(t, loadID)

	rec, out = call(t, h, http.MethodGet, "/api/v1/loads/"+loadID+"/errors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["count"])
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestAPI(t, func(cfg *config.Config) { cfg.Server.MaxBodyBytes = 32 })

	rec, out := call(t, h, http.MethodPost, "/api/v1/questions/parse",
		jsonBody(t, map[string]string{"questionText": ordersQuestion}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, false, out["success"])
}

func TestRateLimited(t *testing.T) {
	h := newTestAPI(t, func(cfg *config.Config) { cfg.Server.RateLimitRequests = 2 })

	for i := 0; i < 2; i++ {
		rec, _ := call(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, out := call(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", out["code"])
}

func TestMetricsAndRouting(t *testing.T) {
	h := newTestAPI(t, nil)

	rec, _ := call(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "playground_")

	rec, _ = call(t, h, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/questions/parse")

	rec, _ = call(t, h, http.MethodPut, "/api/v1/tables", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
