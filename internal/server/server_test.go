package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competitor-xray/backend/internal/config"
	"github.com/competitor-xray/backend/internal/xray"
)

// New registers Prometheus collectors into the default registry, so the
// package tests share one server.
func TestServerWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.RunDelay = 0
	cfg.Demo.Seed = 42

	srv, err := New(cfg)
	require.NoError(t, err)
	router := srv.Router()

	t.Run("root and health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("demo run lands in the trace list", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/trigger-demo",
			strings.NewReader(`{"mode":"random"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/traces", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var traces []xray.Trace
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &traces))
		require.Len(t, traces, 1)
		assert.NotEmpty(t, traces[0].ID)
		assert.NotEmpty(t, traces[0].Steps)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "xray_pipeline_runs_total")
	})
}
