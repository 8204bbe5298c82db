package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// NewMetrics registers into the default Prometheus registry, so the
// package tests share one collector.
func TestMetricsCollector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	t.Run("pipeline runs update the snapshot", func(t *testing.T) {
		m.RecordRun("success", 25*time.Millisecond)
		m.RecordRun("failed", 10*time.Millisecond)
		m.RecordStage("Generate Search Keywords", "llm", time.Millisecond, false)
		m.RecordStage("Apply Business Filters", "filter", time.Millisecond, true)

		snap := m.Snapshot()
		assert.Equal(t, int64(2), snap.TotalRuns)
		assert.Equal(t, int64(1), snap.FailedRuns)
	})

	t.Run("store observer updates the snapshot", func(t *testing.T) {
		m.IncTracesIngested()
		m.IncIDCollisions()
		m.SetTracesStored(7)
		assert.Equal(t, int64(7), m.Snapshot().TracesStored)
	})

	t.Run("middleware records requests", func(t *testing.T) {
		router := gin.New()
		router.Use(Middleware(m))
		router.GET("/api/traces", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/traces", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		snap := m.Snapshot()
		assert.Equal(t, int64(1), snap.TotalRequests)
		assert.Equal(t, int64(0), snap.TotalErrors)
	})

	t.Run("timer records operation durations", func(t *testing.T) {
		timer := NewTimer(m, "export", "csv")
		timer.Stop("success")

		// Nil metrics must be a no-op for optional wiring.
		NewTimer(nil, "export", "json").Stop("success")
	})
}
