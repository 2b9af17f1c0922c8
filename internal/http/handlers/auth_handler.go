// Admin authentication HTTP handlers.
//
//   - POST /auth/login   (password → admin_session cookie)
//   - POST /auth/logout  (revokes the session and clears the cookie)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giveaway-backend/internal/http/middleware"
	"github.com/tbourn/go-giveaway-backend/internal/services"
)

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Password string `json:"password" example:"correct horse battery staple"`
}

// Login godoc
// @ID          login
// @Summary     Admin login
// @Description Verifies the admin password and sets the admin_session cookie (HttpOnly, SameSite=Strict).
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} handlers.SuccessResponse
// @Header      200  {string} Set-Cookie "admin_session=<token>; Path=/; HttpOnly; SameSite=Strict"
// @Failure     400  {object} handlers.ErrorResponse "Password is required"
// @Failure     401  {object} handlers.ErrorResponse "Invalid password"
// @Failure     429  {object} handlers.ErrorResponse "Too many requests"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failService(c, services.ErrPasswordRequired)
		return
	}

	token, expires, err := h.sessions.Login(c.Request.Context(), req.Password)
	switch {
	case err == nil:
		middleware.ObserveLogin("success")
	case errors.Is(err, services.ErrInvalidPassword), errors.Is(err, services.ErrPasswordRequired):
		middleware.ObserveLogin("invalid")
	default:
		middleware.ObserveLogin("error")
	}
	if err != nil {
		failService(c, err)
		return
	}

	maxAge := int(expires.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	h.setSessionCookie(c, token, maxAge)
	ok(c, http.StatusOK, nil)
}

// Logout godoc
// @ID          logout
// @Summary     Admin logout
// @Description Revokes the current admin session, if any, and expires the cookie.
// @Tags        Auth
// @Produce     json
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			failService(c, err)
			return
		}
	}
	h.setSessionCookie(c, "", -1)
	ok(c, http.StatusOK, nil)
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.opts.CookieSecure, true)
}
