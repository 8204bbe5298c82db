package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitor-xray/backend/internal/catalog"
	"github.com/competitor-xray/backend/internal/store"
	"github.com/competitor-xray/backend/internal/workflow"
	"github.com/competitor-xray/backend/internal/xray"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

type fixture struct {
	store   *store.Store
	catalog *catalog.Catalog
	router  *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(nil)
	cat := catalog.MustLoad()
	runner := workflow.NewRunner(st, nil, workflow.WithRand(fixedRand{0.9}))
	handlers := NewHandlers(st, cat, runner, nil,
		WithRunDelay(0),
		WithPicker(fixedRand{0}),
	)

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/api/traces", handlers.ListTraces)
	router.POST("/api/traces", handlers.IngestTrace)
	router.GET("/api/traces/:id", handlers.GetTrace)
	router.POST("/api/trigger-demo", handlers.TriggerDemo)
	router.GET("/api/export-errors", handlers.ExportErrors)
	router.GET("/api/test-cases", handlers.ListTestCases)
	router.GET("/api/categories", handlers.ListCategories)

	return &fixture{store: st, catalog: cat, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode(t, w)["status"])

	w = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(5), body["categories"])
}

func TestListTracesEmpty(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/traces", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var traces []xray.Trace
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &traces))
	assert.Empty(t, traces)
}

func TestListTracesNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.store.Append(&xray.Trace{ID: "older", CreatedAt: time.Now()})
	f.store.Append(&xray.Trace{ID: "newer", CreatedAt: time.Now()})

	w := f.do(t, http.MethodGet, "/api/traces", nil)
	var traces []xray.Trace
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &traces))
	require.Len(t, traces, 2)
	assert.Equal(t, "newer", traces[0].ID)
	assert.Equal(t, "older", traces[1].ID)
}

func TestGetTraceByID(t *testing.T) {
	f := newFixture(t)
	f.store.Append(&xray.Trace{ID: "trace_a", WorkflowName: "Water Bottles & Drinkware - Competitor Analysis"})

	w := f.do(t, http.MethodGet, "/api/traces/trace_a", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace_a", decode(t, w)["id"])

	w = f.do(t, http.MethodGet, "/api/traces/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "trace not found", decode(t, w)["error"])
}

func TestIngestTraceRewritesDuplicates(t *testing.T) {
	f := newFixture(t)

	trace := map[string]interface{}{"id": "ext-1", "workflowName": "External", "status": "success"}
	w := f.do(t, http.MethodPost, "/api/traces", trace)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ext-1", decode(t, w)["traceId"])

	w = f.do(t, http.MethodPost, "/api/traces", trace)
	assert.Equal(t, http.StatusOK, w.Code)
	rewritten, _ := decode(t, w)["traceId"].(string)
	assert.NotEqual(t, "ext-1", rewritten)
	assert.True(t, strings.HasPrefix(rewritten, "EXT-1-"), "got %q", rewritten)
	assert.Equal(t, strings.ToUpper(rewritten), rewritten)
	assert.Equal(t, 2, f.store.Len())
}

func TestIngestTraceRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/traces", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerDemoSingle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/trigger-demo", map[string]interface{}{
		"categoryIndex": 0,
		"testCaseIndex": 0,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["traceId"])
	assert.Equal(t, "Water Bottles & Drinkware", body["category"])
	assert.Equal(t, 1, f.store.Len())
}

func TestTriggerDemoInvalidIndex(t *testing.T) {
	f := newFixture(t)

	for _, payload := range []map[string]interface{}{
		{"categoryIndex": 99, "testCaseIndex": 0},
		{"categoryIndex": 0, "testCaseIndex": 99},
		{"categoryIndex": -1, "testCaseIndex": 0},
	} {
		w := f.do(t, http.MethodPost, "/api/trigger-demo", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Invalid category or test case index", body["error"])
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestTriggerDemoAll(t *testing.T) {
	f := newFixture(t)
	total := len(f.catalog.TestCases(""))

	w := f.do(t, http.MethodPost, "/api/trigger-demo", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "all", body["mode"])
	assert.Equal(t, float64(total), body["totalRun"])
	assert.Equal(t, float64(total), body["successful"])
	assert.Equal(t, float64(total), body["totalTracesInStorage"])
	assert.Equal(t, total, f.store.Len())

	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, total)
}

func TestTriggerDemoRandom(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/trigger-demo", map[string]interface{}{"mode": "random"})
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "random", body["mode"])
	assert.Equal(t, float64(1), body["totalRun"])
	assert.Equal(t, 1, f.store.Len())
}

func TestExportErrorsCSV(t *testing.T) {
	f := newFixture(t)
	f.store.Append(&xray.Trace{
		ID:        "bad",
		CreatedAt: time.Now(),
		Status:    xray.StatusFailed,
		Steps: []xray.Step{{
			ID:     "step_x",
			Name:   "Retrieve Candidates",
			Type:   xray.StepAPI,
			Output: xray.ErrorOutput{Error: "API service unavailable"},
		}},
	})

	w := f.do(t, http.MethodGet, "/api/export-errors?format=csv", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Trace ID,Workflow Name")
	assert.Contains(t, w.Body.String(), "API service unavailable")
}

func TestExportErrorsJSON(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/export-errors", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	meta, ok := body["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json", meta["format"])
	assert.Equal(t, float64(0), meta["totalErrors"])

	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, errs)
}

func TestExportErrorsUnsupportedFormat(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/export-errors?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTestCases(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/test-cases", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	all := decode(t, w)
	assert.Equal(t, float64(len(f.catalog.TestCases(""))), all["count"])

	w = f.do(t, http.MethodGet, "/api/test-cases?categoryId=laptops", nil)
	filtered := decode(t, w)
	assert.Equal(t, float64(len(f.catalog.TestCases("laptops"))), filtered["count"])

	w = f.do(t, http.MethodGet, "/api/test-cases?categoryId=nope", nil)
	empty := decode(t, w)
	assert.Equal(t, float64(0), empty["count"])
	assert.NotNil(t, empty["testCases"])
}

func TestListCategories(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(5), body["count"])

	w = f.do(t, http.MethodGet, "/api/categories?categoryId=laptops", nil)
	filtered := decode(t, w)
	assert.Equal(t, float64(1), filtered["count"])
}
