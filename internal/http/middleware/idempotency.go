// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the chat-turn endpoints. It
// validates an Idempotency-Key request header, optionally performs a
// caller-defined lookup to detect previously completed turns, and annotates
// the request context so downstream components can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (internal flag)
//
// The middleware never serves a cached payload itself; the chat handler
// stays in control of how a replay is answered (it returns the message pair
// persisted with the original turn).
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to convey an
// idempotency key for chat turns. The value is expected to be stable for a
// given semantic operation so retries (network, client, or server
// initiated) can be deduplicated safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates
// presence. Handlers should prefer this over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the middleware detected that this request would
// replay a previously completed turn for (user, session, key). When true the
// handler can short-circuit to the persisted result and the rate limiter
// skips the request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// Receipt TTL enforcement is out of scope here; the lookup decides what
// still counts as replayable.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// RFC7230-like token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a completed, still-valid turn exists for
// (userID, sessionID, key) at the given time. Implementations consult the
// turn_receipts table and apply its expiry window.
//
// Return exists=true when the prior turn can be replayed; return an error
// only for lookup failures, which must not block normal processing.
type IdempotencyLookup func(ctx context.Context, userID int64, sessionID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (when present),
// stashes it in the request context, and optionally marks the request as a
// replay via the supplied lookup.
//
// Behavior:
//   - Absent header: no-op.
//   - Invalid header: 400 with a compact error body.
//   - Lookup hit: sets the replay and rate-bypass flags.
//   - Otherwise: proceeds with the key stashed for the handler.
//
// The lookup needs the authenticated account, so this middleware belongs
// after JWTAuth on the chat group; without an identity the lookup is
// skipped and only header validation applies.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		// Stash the normalized key for downstream use.
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if uid, ok := CurrentUserID(c); ok {
				sessionID := c.Param("sessionID")
				now := time.Now().UTC()

				if exists, _ := lookup(c.Request.Context(), uid, sessionID, key, now); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true) // let the rate limiter skip this one
				}
			}
		}

		c.Next()
	}
}
