// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for admin sessions.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

// CreateSession stores a session token valid until expiresAt.
func CreateSession(ctx context.Context, db *gorm.DB, id string, expiresAt, now int64) error {
	s := &domain.AdminSession{ID: id, ExpiresAt: expiresAt, CreatedAt: now}
	return db.WithContext(ctx).Create(s).Error
}

// GetValidSession returns the session with id if it expires after now, or
// ErrNotFound. Expired rows are simply excluded, never purged here.
func GetValidSession(ctx context.Context, db *gorm.DB, id string, now int64) (*domain.AdminSession, error) {
	var s domain.AdminSession
	err := db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now).
		Take(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes the session with id. Deleting a missing session is
// not an error.
func DeleteSession(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AdminSession{}).Error
}
