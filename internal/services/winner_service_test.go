package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
)

func seedEntries(t *testing.T, s *AdmissionService, giveawayID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.SubmitEntry(context.Background(), giveawayID, fmt.Sprintf("10.0.0.%d", i+1)); err != nil {
			t.Fatalf("seed entry %d: %v", i, err)
		}
	}
}

func TestPickWinner_NotFound(t *testing.T) {
	db := newSvcDB(t)
	s := newWinner(db)
	if _, err := s.PickWinner(context.Background(), "missing"); !errors.Is(err, ErrGiveawayNotFound) {
		t.Fatalf("expected ErrGiveawayNotFound, got %v", err)
	}
}

func TestPickWinner_NoEntries_ReturnsNilWithoutChange(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Empty", nil, 10)
	s := &WinnerService{DB: db, Registry: NewGiveawayService(db, repoFuncs{}), Now: fixedClock(time.Unix(99, 0))}

	w, err := s.PickWinner(ctx, g.ID)
	if err != nil || w != nil {
		t.Fatalf("PickWinner = %v, %v; want nil, nil", w, err)
	}
	got, _ := repo.GetGiveaway(ctx, db, g.ID)
	if got.Status != domain.StatusActive || got.WinnerID != nil || got.UpdatedAt != 10 {
		t.Fatalf("giveaway must be unchanged: %+v", got)
	}
}

func TestPickWinner_UsesDrawnIndexInCreationOrder(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Pick", nil, 1)
	seedEntries(t, &AdmissionService{DB: db}, g.ID, 3)
	entries, _ := repo.ListEntries(ctx, db, g.ID)

	var gotN int
	s := &WinnerService{
		DB:       db,
		Registry: NewGiveawayService(db, repoFuncs{}),
		IntN:     func(n int) int { gotN = n; return 2 },
		Now:      fixedClock(time.Unix(500, 0)),
	}
	w, err := s.PickWinner(ctx, g.ID)
	if err != nil {
		t.Fatalf("PickWinner: %v", err)
	}
	if gotN != 3 {
		t.Fatalf("IntN called with %d; want 3", gotN)
	}
	if w.ID != entries[2].ID {
		t.Fatalf("winner = %q; want %q", w.ID, entries[2].ID)
	}
	got, _ := repo.GetGiveaway(ctx, db, g.ID)
	if got.Status != domain.StatusCompleted || *got.WinnerID != w.ID || got.UpdatedAt != 500 {
		t.Fatalf("unexpected giveaway: %+v", got)
	}
}

func TestPickWinner_Completed_NeverChangesWinner(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Done", nil, 1)
	seedEntries(t, &AdmissionService{DB: db}, g.ID, 2)

	first := &WinnerService{DB: db, Registry: NewGiveawayService(db, repoFuncs{}), IntN: func(int) int { return 0 }}
	w, err := first.PickWinner(ctx, g.ID)
	if err != nil {
		t.Fatalf("PickWinner: %v", err)
	}

	again := &WinnerService{DB: db, Registry: NewGiveawayService(db, repoFuncs{}), IntN: func(int) int { return 1 }}
	for i := 0; i < 3; i++ {
		if _, err := again.PickWinner(ctx, g.ID); !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
		}
	}
	got, _ := repo.GetGiveaway(ctx, db, g.ID)
	if *got.WinnerID != w.ID {
		t.Fatalf("winner changed from %q to %q", w.ID, *got.WinnerID)
	}
}

func TestPickWinner_CompletedWithoutWinner_StillRejected(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Odd", nil, 1)
	db.Model(&domain.Giveaway{}).Where("id = ?", g.ID).Update("status", domain.StatusCompleted)

	s := newWinner(db)
	if _, err := s.PickWinner(ctx, g.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

// Each of N entries should win roughly 1/N of the time with the default source.
func TestPickWinner_Uniform(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Uniform", nil, 1)
	const n = 3
	seedEntries(t, &AdmissionService{DB: db}, g.ID, n)

	s := newWinner(db)
	const trials = 900
	wins := map[string]int{}
	for i := 0; i < trials; i++ {
		w, err := s.PickWinner(ctx, g.ID)
		if err != nil || w == nil {
			t.Fatalf("trial %d: %v, %v", i, w, err)
		}
		wins[w.ID]++
		// reopen for the next draw
		if err := db.Model(&domain.Giveaway{}).Where("id = ?", g.ID).
			Updates(map[string]any{"status": domain.StatusActive, "winner_id": nil}).Error; err != nil {
			t.Fatalf("reset: %v", err)
		}
	}

	if len(wins) != n {
		t.Fatalf("expected all %d entries to win at least once, got %v", n, wins)
	}
	expected := trials / n
	for id, c := range wins {
		// ~5 standard deviations either side
		if c < expected-75 || c > expected+75 {
			t.Fatalf("entry %s won %d times; expected about %d", id, c, expected)
		}
	}
}

func TestPickWinner_CommitsThroughRegistry(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Seam", nil, 1)
	seedEntries(t, &AdmissionService{DB: db}, g.ID, 2)
	entries, _ := repo.ListEntries(ctx, db, g.ID)

	r := &fakeGiveawayRepo{}
	s := &WinnerService{
		DB:       db,
		Registry: NewGiveawayService(db, r),
		IntN:     func(int) int { return 1 },
		Now:      fixedClock(time.Unix(700, 0)),
	}
	w, err := s.PickWinner(ctx, g.ID)
	if err != nil || w == nil || w.ID != entries[1].ID {
		t.Fatalf("PickWinner = %+v, %v", w, err)
	}
	if r.assignGiveaway != g.ID || r.assignEntry != entries[1].ID || r.assignNow != 700 {
		t.Fatalf("registry commit = %q/%q at %d", r.assignGiveaway, r.assignEntry, r.assignNow)
	}

	// The fake never writes, so the stored giveaway is untouched.
	got, _ := repo.GetGiveaway(ctx, db, g.ID)
	if got.Status != domain.StatusActive || got.WinnerID != nil {
		t.Fatalf("store written outside the registry: %+v", got)
	}
}

func TestPickWinner_RegistryLostRace(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	g, _ := repo.CreateGiveaway(ctx, db, "Race", nil, 1)
	seedEntries(t, &AdmissionService{DB: db}, g.ID, 1)

	// The row was completed between lookup and commit.
	r := &fakeGiveawayRepo{assignErr: gorm.ErrRecordNotFound, getGiveaway: &domain.Giveaway{ID: g.ID}}
	s := &WinnerService{DB: db, Registry: NewGiveawayService(db, r)}
	if _, err := s.PickWinner(ctx, g.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}
