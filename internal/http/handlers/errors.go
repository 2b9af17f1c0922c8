// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the stable error codes returned in the `code` field
// of the error envelope, and the translation of service errors into HTTP
// status, code and user-facing message.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror HTTP status semantics; domain codes name the
//     business rule that rejected the request.
//   - Messages are written for end users. Internal error details are logged,
//     never returned.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giveaway-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeNotAvailable     = "not_available"
	ErrCodeAlreadyEntered   = "already_entered"
	ErrCodeAlreadyCompleted = "already_completed"
	ErrCodeInvalidPassword  = "invalid_password"
)

// User-facing messages.
const (
	MsgInvalidID        = "Invalid giveaway ID"
	MsgInvalidBody      = "Invalid request body"
	MsgUnauthorized     = "Unauthorized"
	MsgInternal         = "Internal server error"
	MsgMethodNotAllowed = "Method not allowed"
	MsgRouteNotFound    = "Route not found"
)

type errorMapping struct {
	err    error
	status int
	code   string
	msg    string
}

var serviceErrors = []errorMapping{
	{services.ErrTitleRequired, http.StatusBadRequest, ErrCodeValidation, "Title is required"},
	{services.ErrTitleTooLong, http.StatusBadRequest, ErrCodeValidation, "Title must be less than 200 characters"},
	{services.ErrDescriptionTooLong, http.StatusBadRequest, ErrCodeValidation, "Description must be less than 1000 characters"},
	{services.ErrNotAvailable, http.StatusBadRequest, ErrCodeNotAvailable, "Giveaway not available"},
	{services.ErrAlreadyEntered, http.StatusBadRequest, ErrCodeAlreadyEntered, "You have already entered this giveaway"},
	{services.ErrGiveawayNotFound, http.StatusNotFound, ErrCodeNotFound, "Giveaway not found"},
	{services.ErrAlreadyCompleted, http.StatusBadRequest, ErrCodeAlreadyCompleted, "Winner already selected"},
	{services.ErrPasswordRequired, http.StatusBadRequest, ErrCodeValidation, "Password is required"},
	{services.ErrInvalidPassword, http.StatusUnauthorized, ErrCodeInvalidPassword, "Invalid password"},
}

// failService writes the envelope matching err. Unknown errors become a
// generic 500 and are logged.
func failService(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			fail(c, m.status, m.code, m.msg)
			return
		}
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgInternal, err)
}
