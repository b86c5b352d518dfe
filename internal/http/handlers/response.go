// Package handlers implements the HTTP transport layer of the public API.
//
// This file holds the response helpers every endpoint goes through. Errors
// always leave the server as the same envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Goal not found"
//	}
//
// The request_id echoes the X-Request-ID the middleware stamped on the
// response, so a client-reported error can be matched to its server log
// line. Codes are the stable constants from errors.go; messages are free
// text safe to surface in a UI.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by every endpoint. It appears
// verbatim in the OpenAPI document.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Goal not found"`
}

// fail aborts the request with the standard error envelope.
//
// Server-side failures (5xx) are additionally written to the request-scoped
// logger; 4xx are the caller's problem and stay out of the error log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to packages outside handlers (the router's NoRoute and
// NoMethod fallbacks) so every error on the wire has the same shape.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes a bodyless 204.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
