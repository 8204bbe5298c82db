// Package http provides HTTP handlers for the tracing REST API.
//
// This package implements all HTTP endpoints using the Gin framework.
//
// Endpoints:
//   - Health: / and /health
//   - Traces: GET/POST /api/traces, GET /api/traces/:id
//   - Demo: POST /api/trigger-demo
//   - Exports: GET /api/export-errors?format=csv|json
//   - Catalog: GET /api/test-cases, GET /api/categories
//
// Example Usage:
//
//	handlers := http.NewHandlers(store, catalog, runner, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/api/trigger-demo", handlers.TriggerDemo)
package http
