package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/competitor-xray/backend/internal/catalog"
	"github.com/competitor-xray/backend/internal/export"
	"github.com/competitor-xray/backend/internal/logging"
	"github.com/competitor-xray/backend/internal/monitoring"
	"github.com/competitor-xray/backend/internal/store"
	"github.com/competitor-xray/backend/internal/workflow"
	"github.com/competitor-xray/backend/internal/xray"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store    *store.Store
	catalog  *catalog.Catalog
	runner   *workflow.Runner
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	picker   workflow.Rand
	runDelay time.Duration
}

// Option configures the handler set.
type Option func(*Handlers)

// WithMetrics wires operation metrics into the handlers.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handlers) { h.metrics = m }
}

// WithRunDelay sets the pause between demo runs.
func WithRunDelay(d time.Duration) Option {
	return func(h *Handlers) { h.runDelay = d }
}

// WithPicker overrides the randomness used for random demo mode.
func WithPicker(r workflow.Rand) Option {
	return func(h *Handlers) { h.picker = r }
}

// NewHandlers creates a new handler set
func NewHandlers(st *store.Store, cat *catalog.Catalog, runner *workflow.Runner, logger *logging.Logger, opts ...Option) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Handlers{
		store:    st,
		catalog:  cat,
		runner:   runner,
		logger:   logger.Named("http"),
		picker:   workflow.NewTimeSeededRand(),
		runDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Competitor X-Ray Backend (Go)",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"traces":     h.store.Len(),
		"categories": len(h.catalog.Categories()),
	})
}

// ListTraces returns every stored trace, newest first.
func (h *Handlers) ListTraces(c *gin.Context) {
	traces := h.store.ListAll()
	for i, j := 0, len(traces)-1; i < j; i, j = i+1, j-1 {
		traces[i], traces[j] = traces[j], traces[i]
	}
	c.JSON(http.StatusOK, traces)
}

// GetTrace returns a single trace by its exact ID.
func (h *Handlers) GetTrace(c *gin.Context) {
	trace, ok := h.store.FindByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "trace not found"})
		return
	}
	c.JSON(http.StatusOK, trace)
}

// IngestTrace accepts an externally produced trace and stores it,
// rewriting the ID on collision.
func (h *Handlers) IngestTrace(c *gin.Context) {
	var trace xray.Trace
	if err := c.ShouldBindJSON(&trace); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	traceID := h.store.Append(&trace)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"traceId": traceID,
	})
}

type triggerDemoRequest struct {
	CategoryIndex *int   `json:"categoryIndex"`
	TestCaseIndex *int   `json:"testCaseIndex"`
	Mode          string `json:"mode"`
}

type demoResult struct {
	Success  bool   `json:"success"`
	TraceID  string `json:"traceId,omitempty"`
	Category string `json:"category"`
	TestCase string `json:"testCase"`
	Error    string `json:"error,omitempty"`
}

type demoRun struct {
	category *catalog.Category
	testCase catalog.Item
}

// TriggerDemo runs demo pipelines. With both indices present it runs
// that single test case; otherwise it runs all of them, or one picked at
// random when mode is "random".
func (h *Handlers) TriggerDemo(c *gin.Context) {
	var req triggerDemoRequest
	// An empty or malformed body means "run everything".
	_ = c.ShouldBindJSON(&req)

	if req.CategoryIndex != nil && req.TestCaseIndex != nil {
		h.runSingleDemo(c, *req.CategoryIndex, *req.TestCaseIndex)
		return
	}

	var runs []demoRun
	for _, category := range h.catalog.Categories() {
		for _, tc := range category.TestCases() {
			runs = append(runs, demoRun{category: category, testCase: tc})
		}
	}

	if req.Mode == "random" && len(runs) > 0 {
		runs = []demoRun{runs[int(h.picker.Float64()*float64(len(runs)))]}
	}

	results := make([]demoResult, 0, len(runs))
	for i, run := range runs {
		h.logger.Info("running test case",
			zap.String("test_case", run.testCase.Title),
			zap.String("category", run.category.Name()),
		)
		trace := h.runner.RunCompetitorSelection(c.Request.Context(), run.testCase, run.category)
		results = append(results, demoResult{
			Success:  true,
			TraceID:  trace.ID,
			Category: run.category.Name(),
			TestCase: run.testCase.Title,
		})

		// Pacing keeps collision suffix timestamps unique across runs.
		if i < len(runs)-1 {
			time.Sleep(h.runDelay)
		}
	}

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	mode := req.Mode
	if mode == "" {
		mode = "all"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"mode":                 mode,
		"totalRun":             len(results),
		"successful":           successful,
		"totalTracesInStorage": h.store.Len(),
		"results":              results,
	})
}

func (h *Handlers) runSingleDemo(c *gin.Context, categoryIndex, testCaseIndex int) {
	categories := h.catalog.Categories()
	if categoryIndex < 0 || categoryIndex >= len(categories) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid category or test case index",
		})
		return
	}
	category := categories[categoryIndex]
	testCases := category.TestCases()
	if testCaseIndex < 0 || testCaseIndex >= len(testCases) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid category or test case index",
		})
		return
	}

	testCase := testCases[testCaseIndex]
	trace := h.runner.RunCompetitorSelection(c.Request.Context(), testCase, category)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"traceId":  trace.ID,
		"category": category.Name(),
		"testCase": testCase.Title,
	})
}

// ExportErrors renders every failed step across all traces as a
// downloadable CSV or JSON report.
func (h *Handlers) ExportErrors(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unsupported format: " + format,
		})
		return
	}

	timer := monitoring.NewTimer(h.metrics, "export", format)
	logs := export.ExtractErrorLogs(h.store.ListAll())
	now := time.Now()

	if format == "csv" {
		csvBody, err := export.ToCSV(logs)
		if err != nil {
			timer.Stop("error")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		timer.Stop("success")
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename("csv", now)+`"`)
		c.Data(http.StatusOK, "text/csv", []byte(csvBody))
		return
	}

	timer.Stop("success")
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename("json", now)+`"`)
	c.JSON(http.StatusOK, export.NewReport(logs, now))
}

// ListTestCases returns demo test cases, optionally filtered by category.
func (h *Handlers) ListTestCases(c *gin.Context) {
	cases := h.catalog.TestCases(c.Query("categoryId"))
	if cases == nil {
		cases = []catalog.Item{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(cases),
		"testCases": cases,
	})
}

// ListCategories returns the category configurations, optionally
// filtered by ID.
func (h *Handlers) ListCategories(c *gin.Context) {
	specs := h.catalog.Specs(c.Query("categoryId"))
	if specs == nil {
		specs = []catalog.CategorySpec{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(specs),
		"categories": specs,
	})
}
