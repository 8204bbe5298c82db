// Package main is the entry point for the competitor X-Ray backend.
//
// The service runs a five-stage competitor selection pipeline with full
// execution tracing and serves the captured traces, demo triggers and
// error exports over a REST API.
//
// Configuration:
//   - Environment variables (12-factor)
//   - Defaults for development
//
// Usage:
//
//	PORT=8000 ./server
//
//	# Deterministic demo runs
//	XRAY_SEED=42 ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
