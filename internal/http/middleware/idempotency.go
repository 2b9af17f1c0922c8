// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for admin creates. It validates
// the Idempotency-Key header, asks a lookup whether the same (scope, key) was
// already completed, and annotates the context so the handler can serve the
// stored resource instead of creating another one. The scope is the method
// plus route pattern, so the same key may be reused on different endpoints.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemReplay   = "idem.replay"   // bool: a stored result exists
	ctxKeyIdemResource = "idem.resource" // string: ID of the stored resource
	ctxKeyRateBypass   = "rate.bypass"   // bool: skip rate limiting
)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats a completed operation.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ReplayResourceID returns the ID of the resource created by the original
// request when IsReplay is true.
func ReplayResourceID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemResource)
	return asString(v)
}

// IdempotencyScope returns the scope under which keys for this request are
// stored: the method and the matched route pattern.
func IdempotencyScope(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

// IdempotencyOptions configures header validation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// IdempotencyLookup returns the resource ID stored for (scope, key) if a
// completed, unexpired record exists. TTL enforcement belongs to the lookup.
// Errors are treated as "no record" and never block the request.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (resourceID string, exists bool, err error)

// IdempotencyValidator validates and stashes the Idempotency-Key header and,
// when lookup finds a stored result, marks the request as a replay (which
// also bypasses rate limiting). Requests without the header pass untouched.
// An invalid key is rejected with 400.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortError(c, http.StatusBadRequest, "bad_idempotency_key", "Invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			id, exists, err := lookup(c.Request.Context(), IdempotencyScope(c), key, now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			} else if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemResource, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
