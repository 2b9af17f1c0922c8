// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Giveaway
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// entry_count is never stored. Every read computes it with a correlated
// subquery against the entries table, so it cannot drift from the ledger.
//
// Error semantics:
//   - When a giveaway is not found, functions return ErrNotFound.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

const selectWithEntryCount = "giveaways.*, " +
	"(SELECT COUNT(*) FROM entries WHERE entries.giveaway_id = giveaways.id) AS entry_count"

// newestFirst orders by creation time, breaking same-second ties by
// insertion order.
const newestFirst = "giveaways.created_at DESC, giveaways.rowid DESC"

// withEntryCount selects every giveaway column plus the derived entry_count.
func withEntryCount(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Giveaway{}).Select(selectWithEntryCount)
}

// CreateGiveaway inserts a new active giveaway with a random UUID primary key.
// now is used for both CreatedAt and UpdatedAt.
func CreateGiveaway(ctx context.Context, db *gorm.DB, title string, description *string, now int64) (*domain.Giveaway, error) {
	g := &domain.Giveaway{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGiveaway fetches a single giveaway by ID with its current entry count.
func GetGiveaway(ctx context.Context, db *gorm.DB, id string) (*domain.Giveaway, error) {
	var g domain.Giveaway
	err := db.WithContext(ctx).
		Scopes(withEntryCount).
		Where("giveaways.id = ?", id).
		Take(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGiveaways returns giveaways newest first, each with its entry count.
// An empty status returns every giveaway; otherwise only that status.
func ListGiveaways(ctx context.Context, db *gorm.DB, status string) ([]domain.Giveaway, error) {
	q := db.WithContext(ctx).Scopes(withEntryCount)
	if status != "" {
		q = q.Where("giveaways.status = ?", status)
	}
	out := []domain.Giveaway{}
	err := q.Order(newestFirst).Find(&out).Error
	return out, err
}

// AssignWinner records entryID as the winner of giveawayID, flips the status
// to completed and refreshes updated_at. Rows that are already completed are
// left untouched; in that case, or when the giveaway is missing, ErrNotFound
// is returned.
func AssignWinner(ctx context.Context, db *gorm.DB, giveawayID, entryID string, now int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Giveaway{}).
		Where("id = ? AND status <> ?", giveawayID, domain.StatusCompleted).
		Updates(map[string]any{
			"winner_id":  entryID,
			"status":     domain.StatusCompleted,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
