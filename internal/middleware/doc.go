// Package middleware provides the HTTP middleware stack for the tracing
// backend.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing for the dashboard frontend
//   - RateLimit: Per-IP token bucket rate limiting
//   - RequestID: Unique ID per request, echoed in the X-Request-ID header
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
