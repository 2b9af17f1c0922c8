// Package services – SessionService
//
// This file implements the admin session guard: bcrypt password check,
// opaque session tokens persisted in the store, validation against the
// expiry timestamp and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/repo"
)

// maxPasswordLen bounds the password accepted by Login. bcrypt itself only
// reads the first 72 bytes.
const maxPasswordLen = 100

// SessionService issues and validates admin sessions.
type SessionService struct {
	DB *gorm.DB

	// PasswordHash is the bcrypt hash of the admin password.
	PasswordHash []byte
	// SessionDuration is how long a new session stays valid.
	SessionDuration time.Duration

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Login checks password against PasswordHash and, on success, creates a new
// session. It returns the token and its expiry.
func (s *SessionService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, ErrPasswordRequired
	}
	if len(password) > maxPasswordLen {
		return "", time.Time{}, ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", time.Time{}, ErrInvalidPassword
		}
		return "", time.Time{}, fmt.Errorf("compare password: %w", err)
	}
	return s.Create(ctx)
}

// Create stores a new session valid for SessionDuration.
func (s *SessionService) Create(ctx context.Context) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.SessionDuration)
	token := uuid.NewString()
	if err := repo.CreateSession(ctx, s.DB, token, expires.Unix(), now.Unix()); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, expires, nil
}

// Validate reports whether token names an unexpired session. Lookup errors
// count as invalid.
func (s *SessionService) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := repo.GetValidSession(ctx, s.DB, token, s.now().Unix())
	return err == nil
}

// Destroy deletes the session named by token. An empty or unknown token is
// not an error.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return repo.DeleteSession(ctx, s.DB, token)
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
