// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the protected route
// groups. The middleware owns only transport concerns: extracting the token
// from the Authorization header, invoking a caller-supplied Authenticator,
// and stashing the resolved account id in the Gin context for handlers,
// rate limiting, and logging.
//
// Verification itself (signature, expiry, subject resolution) lives behind
// the Authenticator function so the middleware stays decoupled from the
// token and user packages.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context key used to stash the authenticated account id.
const ctxKeyUserID = "auth.userID"

// Authenticator resolves a raw bearer token to the owning account id.
// Implementations verify the token (signature, expiry) and map its subject
// to a user row; any failure, including an unknown subject, is reported as
// an error and collapses to 401 at the transport layer.
type Authenticator func(ctx context.Context, token string) (userID int64, err error)

// CurrentUserID returns the authenticated account id placed in the Gin
// context by JWTAuth. The second return value is false on routes that did
// not pass through authentication.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// JWTAuth returns a Gin middleware that guards a route group with bearer
// authentication.
//
// Behavior:
//   - Requires an "Authorization: Bearer <token>" header; anything else is
//     rejected with 401 and a WWW-Authenticate challenge.
//   - Delegates verification to authenticate; all failures (malformed,
//     expired, unknown subject) produce the same 401 body so callers cannot
//     probe which accounts exist.
//   - On success, stores the account id under the auth context key; read it
//     with CurrentUserID.
func JWTAuth(authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}

		userID, err := authenticate(c.Request.Context(), token)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

// unauthorized aborts with the standard 401 envelope and bearer challenge.
func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "Could not validate credentials",
	})
}

// bearerToken extracts the token from an Authorization header value,
// accepting any casing of the "Bearer" scheme. It returns "" when the header
// is absent or uses a different scheme.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
