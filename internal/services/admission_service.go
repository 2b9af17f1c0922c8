// Package services – AdmissionService
//
// This file implements the entry admission flow: validate that the giveaway
// is open, derive the dedup key from the client address, insert the entry and
// hand back the anonymous id. The (giveaway_id, ip_hash) unique index is the
// source of truth for one-entry-per-address; the count beforehand only saves
// an insert in the common repeat case.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/identity"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
)

// AdmissionService admits anonymous entries into active giveaways.
type AdmissionService struct {
	DB *gorm.DB

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// SubmitEntry admits one entry from clientAddress into giveawayID and returns
// the anonymous id disclosed to the entrant. The internal entry id is never
// returned.
func (s *AdmissionService) SubmitEntry(ctx context.Context, giveawayID, clientAddress string) (string, error) {
	tr := otel.Tracer("services/AdmissionService")
	ctx, span := tr.Start(ctx, "SubmitEntry",
		trace.WithAttributes(attribute.String("giveaway.id", giveawayID)),
	)
	defer span.End()

	g, err := repo.GetGiveaway(ctx, s.DB, giveawayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotAvailable
		}
		return "", fmt.Errorf("lookup giveaway: %w", err)
	}
	if g.Status != domain.StatusActive {
		return "", ErrNotAvailable
	}

	ipHash := identity.Hash(clientAddress)

	n, err := repo.CountEntriesByIPHash(ctx, s.DB, giveawayID, ipHash)
	if err != nil {
		return "", fmt.Errorf("count entries: %w", err)
	}
	if n > 0 {
		span.SetAttributes(attribute.Bool("entry.duplicate", true))
		return "", ErrAlreadyEntered
	}

	e := &domain.Entry{
		ID:          uuid.NewString(),
		GiveawayID:  giveawayID,
		AnonymousID: uuid.NewString(),
		IPHash:      ipHash,
		CreatedAt:   s.now().Unix(),
	}
	if err := repo.CreateEntry(ctx, s.DB, e); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			span.SetAttributes(attribute.Bool("entry.duplicate", true))
			return "", ErrAlreadyEntered
		}
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return e.AnonymousID, nil
}

func (s *AdmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
