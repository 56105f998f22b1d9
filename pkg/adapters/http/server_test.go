package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/pkg/adapters/memory"
	"github.com/aretw0/relstore/pkg/persistence/middleware"
	"github.com/aretw0/relstore/pkg/schema"
	"github.com/aretw0/relstore/pkg/validation"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	def := schema.Definition{
		Name: "library",
		Tables: map[string]schema.TableDefinition{
			"books": {
				"title": {Type: schema.String, Constraints: []schema.Constraint{
					{Kind: schema.ConstraintPresent},
					{Kind: schema.ConstraintMaxLength, Value: 32},
				}},
				"year":      {Type: schema.Integer, Validators: []validation.Validator{validation.Min(1000)}},
				"available": {Type: schema.Boolean},
				"genre": {Type: schema.String, Default: schema.Literal("fiction"), Constraints: []schema.Constraint{
					{Kind: schema.ConstraintOneOf, Value: []any{"fiction", "non-fiction"}},
				}},
			},
		},
	}
	store, err := relstore.Define(memory.NewStore(), def)
	require.NoError(t, err)

	h, err := NewHandler(store, opts...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestGetHealth(t *testing.T) {
	h := newTestHandler(t)
	rr, resp := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	h := newTestHandler(t)
	rr, resp := do(t, h, "GET", "/info", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "relstore-http", resp["app"])
	assert.Equal(t, "library", resp["schema"])
	assert.NotEmpty(t, resp["version"])
}

func TestCRUD(t *testing.T) {
	h := newTestHandler(t)

	rr, created := do(t, h, "POST", "/tables/books", `{"title":"Dune","year":1965,"available":true}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "fiction", created["genre"])
	assert.Equal(t, "/tables/books/"+id, rr.Header().Get("Location"))

	rr, created = do(t, h, "POST", "/tables/books/", `{"title":"Emma","year":1815}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/tables/books/"+created["id"].(string), rr.Header().Get("Location"),
		"a trailing slash does not double the separator")

	rr, found := do(t, h, "GET", "/tables/books/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Dune", found["title"])
	assert.EqualValues(t, 1965, found["year"])

	rr, updated := do(t, h, "PUT", "/tables/books/"+id, `{"title":"Dune Messiah","year":1969}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, "Dune Messiah", updated["title"])

	rr, _ = do(t, h, "DELETE", "/tables/books/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, _ = do(t, h, "GET", "/tables/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, h, "DELETE", "/tables/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWhere(t *testing.T) {
	h := newTestHandler(t)
	for _, body := range []string{
		`{"title":"Dune","year":1965,"available":true}`,
		`{"title":"Emma","year":1815,"available":false}`,
		`{"title":"Sapiens","year":2011,"genre":"non-fiction","available":true}`,
	} {
		rr, _ := do(t, h, "POST", "/tables/books", body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	tests := []struct {
		query  string
		status int
		count  int
	}{
		{"", http.StatusOK, 3},
		{"?year=1965", http.StatusOK, 1},
		{"?available=true", http.StatusOK, 2},
		{"?available=true&genre=fiction", http.StatusOK, 1},
		{"?title=Nope", http.StatusOK, 0},
		{"?year=soon", http.StatusBadRequest, -1},
		{"?author=Herbert", http.StatusBadRequest, -1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/tables/books"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.count >= 0 {
				var list []map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
				assert.Len(t, list, tt.count)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	rr, resp := do(t, h, "POST", "/tables/books", `{"year":"1965","genre":"poetry"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	fields, ok := resp["fields"].(map[string]any)
	require.True(t, ok, rr.Body.String())
	assert.Equal(t, []any{"should be present"}, fields["title"])
	assert.Equal(t, []any{"should be an integer", "should be more or equal to 1000"}, fields["year"])
	assert.Equal(t, []any{"should be one of [fiction,non-fiction]"}, fields["genre"])

	rr, resp = do(t, h, "POST", "/tables/books/validate", `{"title":"Dune","year":12}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, map[string]any{"year": []any{"should be more or equal to 1000"}}, resp["errors"])

	rr, resp = do(t, h, "POST", "/tables/books/validate", `{"title":"Dune"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, resp["valid"])
	assert.Equal(t, map[string]any{}, resp["errors"])
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name, method, path, body string
		status                   int
	}{
		{"unknown table", "GET", "/tables/magazines", "", http.StatusNotFound},
		{"malformed json", "POST", "/tables/books", `{"title":`, http.StatusBadRequest},
		{"array body", "POST", "/tables/books", `[1,2]`, http.StatusBadRequest},
		{"update missing", "PUT", "/tables/books/ghost", `{"title":"Ghost"}`, http.StatusNotFound},
		{"update invalid", "PUT", "/tables/books/ghost", `{"year":"x"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestListTables(t *testing.T) {
	h := newTestHandler(t)
	rr, resp := do(t, h, "GET", "/tables", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "library", resp["name"])
	tables, _ := resp["tables"].([]any)
	require.Len(t, tables, 1)
	assert.Equal(t, "books", tables[0].(map[string]any)["name"])
}

func TestOpenAPIDocument(t *testing.T) {
	h := newTestHandler(t)
	rr, doc := do(t, h, "GET", "/openapi.json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "3.0.3", doc["openapi"])

	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/tables", "/tables/books", "/tables/books/{id}", "/tables/books/validate"} {
		assert.Contains(t, paths, p)
	}

	books := doc["components"].(map[string]any)["schemas"].(map[string]any)["books"].(map[string]any)
	assert.Equal(t, []any{"title"}, books["required"])
	props := books["properties"].(map[string]any)
	assert.EqualValues(t, 32, props["title"].(map[string]any)["maxLength"])
	assert.Equal(t, "fiction", props["genre"].(map[string]any)["default"])
	assert.Equal(t, []any{"fiction", "non-fiction"}, props["genre"].(map[string]any)["enum"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw := middleware.NewMetricsMiddleware(middleware.NewMetrics(reg))

	def := schema.Definition{Name: "s", Tables: map[string]schema.TableDefinition{"t": {"f": {Type: schema.String}}}}
	store, err := relstore.Define(mw(memory.NewStore()), def)
	require.NoError(t, err)
	h, err := NewHandler(store, WithGatherer(reg))
	require.NoError(t, err)

	rr, _ := do(t, h, "GET", "/tables/t", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `relstore_kv_operations_total{op="get",result="miss"} 1`)

	rr, _ = do(t, newTestHandler(t), "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
