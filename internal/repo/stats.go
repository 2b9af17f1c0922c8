// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

// GiveawayStats summarizes the rows a giveaway listing would return. Any
// change to the listing (new giveaway, new entry, winner assignment) changes
// at least one field.
type GiveawayStats struct {
	Count        int64
	Entries      int64
	MaxUpdatedAt int64
}

// GiveawaysStats computes GiveawayStats for giveaways with the given status,
// or for all giveaways when status is empty.
func GiveawaysStats(ctx context.Context, db *gorm.DB, status string) (GiveawayStats, error) {
	var st GiveawayStats
	q := db.WithContext(ctx).Model(&domain.Giveaway{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	row := q.Select("COUNT(*), COALESCE(MAX(updated_at), 0)").Row()
	if err := row.Scan(&st.Count, &st.MaxUpdatedAt); err != nil {
		return GiveawayStats{}, err
	}
	if st.Count == 0 {
		return st, nil
	}

	eq := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Joins("JOIN giveaways ON giveaways.id = entries.giveaway_id")
	if status != "" {
		eq = eq.Where("giveaways.status = ?", status)
	}
	if err := eq.Count(&st.Entries).Error; err != nil {
		return GiveawayStats{}, err
	}
	return st, nil
}
