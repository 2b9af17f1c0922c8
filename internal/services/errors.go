// Package services defines the business logic for giveaways, entry admission,
// winner selection and admin sessions. This file centralizes service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages and HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Giveaway registry errors.
var (
	// ErrTitleRequired is returned when a giveaway title is empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong is returned when a title exceeds the rune limit.
	ErrTitleTooLong = errors.New("title too long")

	// ErrDescriptionTooLong is returned when a description exceeds the rune limit.
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrGiveawayNotFound indicates that the requested giveaway does not exist.
	ErrGiveawayNotFound = errors.New("giveaway not found")
)

// Admission errors.
var (
	// ErrNotAvailable is returned when an entry targets a giveaway that is
	// missing or not active.
	ErrNotAvailable = errors.New("giveaway not available")

	// ErrAlreadyEntered is returned when the client address already holds an
	// entry for the giveaway.
	ErrAlreadyEntered = errors.New("already entered this giveaway")
)

// Winner selection errors.
var (
	// ErrAlreadyCompleted is returned when a winner was already selected.
	ErrAlreadyCompleted = errors.New("winner already selected")
)

// Session errors.
var (
	// ErrPasswordRequired is returned when a login carries no password.
	ErrPasswordRequired = errors.New("password is required")

	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")
)
