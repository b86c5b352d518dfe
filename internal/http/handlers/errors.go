// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Upstream codes (upstream_timeout, upstream_unavailable) distinguish inference
//     service failures from this service's own errors, so clients can retry
//     appropriately.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Clients are expected to branch on these codes for programmatic error handling.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "upstream_timeout",
//	  "message": "The coaching service took too long to respond"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	// No "forbidden" code exists: ownership failures collapse into not_found
	// so conversation and goal ids cannot be probed across accounts.
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeRateLimited = "rate_limited" // emitted by the limiter middleware
	ErrCodeInternal    = "internal_error"

	// Upstream inference failures:
	ErrCodeUpstreamTimeout     = "upstream_timeout"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"

	// Routing:
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
