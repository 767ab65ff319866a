// Package middleware provides HTTP middleware components for the seedvault API server.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - logging.go: Structured request logging middleware
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - security_headers.go: Security and no-store caching headers
//   - body_limit.go: Request body size limiting middleware
//   - request_id.go: Request ID generation and tracking middleware
//   - ratelimit.go: Per-client token bucket rate limiting
//   - trusted_proxy.go: Client IP resolution behind trusted proxies
//   - metrics.go: HTTP metrics collection middleware
//   - response_writer.go: Status and size capture shared by logging and metrics
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// This allows easy chaining: handler = middleware1(middleware2(handler))
//
// Example usage:
//
//	mux := http.NewServeMux()
//	// ... register handlers ...
//
//	handler := middleware.Logging(logger, middleware.GetRequestID)(mux)
//	handler = middleware.RequestID()(handler)
//	handler = middleware.PanicRecovery(logger)(handler)
//
//	http.ListenAndServe("127.0.0.1:8787", handler)
package middleware
