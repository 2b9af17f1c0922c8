// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file gates admin routes behind the admin_session cookie.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the cookie carrying the admin session token.
const SessionCookie = "admin_session"

// SessionValidator reports whether a session token is currently valid.
type SessionValidator interface {
	Validate(ctx context.Context, token string) bool
}

// RequireSession aborts with 401 unless the request carries a valid
// admin_session cookie.
func RequireSession(v SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" || !v.Validate(c.Request.Context(), token) {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		c.Next()
	}
}
