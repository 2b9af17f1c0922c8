// Package services – WinnerService
//
// This file implements winner selection. The whole pick (lookup, entry list,
// draw and commit) runs in one transaction. The commit goes through the
// giveaway registry and only touches rows that are not yet completed, so a
// winner once set is permanent.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
)

// WinnerService selects a uniformly random winner among a giveaway's entries.
type WinnerService struct {
	DB *gorm.DB

	// Registry commits the drawn winner.
	Registry *GiveawayService

	// IntN returns a uniform integer in [0, n). Defaults to math/rand/v2's
	// process-seeded source.
	IntN func(n int) int

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// PickWinner draws and commits a winner for giveawayID.
//
// It returns ErrGiveawayNotFound when the giveaway does not exist and
// ErrAlreadyCompleted when a winner was already selected. A giveaway without
// entries yields (nil, nil) and is left unchanged.
func (s *WinnerService) PickWinner(ctx context.Context, giveawayID string) (*domain.Entry, error) {
	tr := otel.Tracer("services/WinnerService")
	ctx, span := tr.Start(ctx, "PickWinner",
		trace.WithAttributes(attribute.String("giveaway.id", giveawayID)),
	)
	defer span.End()

	var winner *domain.Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repo.GetGiveaway(ctx, tx, giveawayID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGiveawayNotFound
			}
			return fmt.Errorf("lookup giveaway: %w", err)
		}
		if g.Status == domain.StatusCompleted {
			return ErrAlreadyCompleted
		}

		entries, err := repo.ListEntries(ctx, tx, giveawayID)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		span.SetAttributes(attribute.Int("entries.count", len(entries)))
		if len(entries) == 0 {
			return nil
		}

		picked := entries[s.intN(len(entries))]
		if err := s.Registry.AssignWinner(ctx, tx, giveawayID, picked.ID, s.now()); err != nil {
			if errors.Is(err, ErrAlreadyCompleted) {
				return err
			}
			return fmt.Errorf("assign winner: %w", err)
		}
		winner = &picked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winner, nil
}

func (s *WinnerService) intN(n int) int {
	if s.IntN != nil {
		return s.IntN(n)
	}
	return rand.IntN(n)
}

func (s *WinnerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
