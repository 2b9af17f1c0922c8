// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Entry
// ledger.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

// creationOrder lists entries oldest first, breaking same-second ties by
// insertion order.
const creationOrder = "created_at ASC, rowid ASC"

// CreateEntry inserts e. A violation of the (giveaway_id, ip_hash) unique
// index is reported as ErrDuplicate.
func CreateEntry(ctx context.Context, db *gorm.DB, e *domain.Entry) error {
	err := db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// CountEntriesByIPHash returns how many entries giveawayID holds for ipHash.
func CountEntriesByIPHash(ctx context.Context, db *gorm.DB, giveawayID, ipHash string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("giveaway_id = ? AND ip_hash = ?", giveawayID, ipHash).
		Count(&n).Error
	return n, err
}

// CountEntries returns the number of entries for giveawayID.
func CountEntries(ctx context.Context, db *gorm.DB, giveawayID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("giveaway_id = ?", giveawayID).
		Count(&n).Error
	return n, err
}

// ListEntries returns every entry for giveawayID in creation order.
func ListEntries(ctx context.Context, db *gorm.DB, giveawayID string) ([]domain.Entry, error) {
	out := []domain.Entry{}
	err := db.WithContext(ctx).
		Where("giveaway_id = ?", giveawayID).
		Order(creationOrder).
		Find(&out).Error
	return out, err
}

// ListEntriesPage returns a page of entries for giveawayID in creation order.
func ListEntriesPage(ctx context.Context, db *gorm.DB, giveawayID string, offset, limit int) ([]domain.Entry, error) {
	out := []domain.Entry{}
	err := db.WithContext(ctx).
		Where("giveaway_id = ?", giveawayID).
		Order(creationOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
