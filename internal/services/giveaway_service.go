// Package services – GiveawayService
//
// This file implements the GiveawayService, which owns the lifecycle state of
// giveaways. It validates and normalizes titles and descriptions, and
// coordinates repository operations for creating, reading, listing and
// completing giveaways. Entry counts are always read from the store; nothing
// here caches giveaway state across calls.
//
// Service-level errors (e.g., ErrGiveawayNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

// GiveawayRepo defines the repository contract required by GiveawayService.
type GiveawayRepo interface {
	// CreateGiveaway inserts a new active giveaway.
	CreateGiveaway(ctx context.Context, db *gorm.DB, title string, description *string, now int64) (*domain.Giveaway, error)

	// GetGiveaway fetches a giveaway by ID with its entry count.
	GetGiveaway(ctx context.Context, db *gorm.DB, id string) (*domain.Giveaway, error)

	// ListGiveaways returns giveaways newest first; an empty status means all.
	ListGiveaways(ctx context.Context, db *gorm.DB, status string) ([]domain.Giveaway, error)

	// AssignWinner records the winner and completes the giveaway.
	AssignWinner(ctx context.Context, db *gorm.DB, giveawayID, entryID string, now int64) error

	// CountEntries returns the number of entries for a giveaway.
	CountEntries(ctx context.Context, db *gorm.DB, giveawayID string) (int64, error)

	// ListEntriesPage returns a page of entries in creation order.
	ListEntriesPage(ctx context.Context, db *gorm.DB, giveawayID string, offset, limit int) ([]domain.Entry, error)
}

// GiveawayService provides registry operations over giveaways.
type GiveawayService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the giveaway repository used by this service.
	Repo GiveawayRepo

	// TitleMaxLen caps titles by rune length.
	TitleMaxLen int
	// DescriptionMaxLen caps descriptions by rune length.
	DescriptionMaxLen int

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewGiveawayService constructs a GiveawayService with the standard limits.
func NewGiveawayService(db *gorm.DB, r GiveawayRepo) *GiveawayService {
	return &GiveawayService{
		DB:                db,
		Repo:              r,
		TitleMaxLen:       200,
		DescriptionMaxLen: 1000,
		Now:               time.Now,
	}
}

// Create validates the input and inserts a new active giveaway. A nil
// description is stored as NULL; an empty one is stored as "".
func (s *GiveawayService) Create(ctx context.Context, title string, description *string) (*domain.Giveaway, error) {
	title = normalizeText(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return nil, ErrTitleTooLong
	}

	var desc *string
	if description != nil {
		d := normalizeText(*description)
		if s.DescriptionMaxLen > 0 && utf8.RuneCountInString(d) > s.DescriptionMaxLen {
			return nil, ErrDescriptionTooLong
		}
		desc = &d
	}

	return s.Repo.CreateGiveaway(ctx, s.DB, title, desc, s.now().Unix())
}

// Get returns the giveaway with id or ErrGiveawayNotFound.
func (s *GiveawayService) Get(ctx context.Context, id string) (*domain.Giveaway, error) {
	g, err := s.Repo.GetGiveaway(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiveawayNotFound
		}
		return nil, err
	}
	return g, nil
}

// ListActive returns active giveaways, newest first.
func (s *GiveawayService) ListActive(ctx context.Context) ([]domain.Giveaway, error) {
	return s.Repo.ListGiveaways(ctx, s.DB, domain.StatusActive)
}

// ListAll returns every giveaway, newest first.
func (s *GiveawayService) ListAll(ctx context.Context) ([]domain.Giveaway, error) {
	return s.Repo.ListGiveaways(ctx, s.DB, "")
}

// AssignWinner records entryID as the winner of giveawayID and completes it,
// using tx when the caller holds a transaction (nil means s.DB). A giveaway
// that is already completed is left untouched and yields ErrAlreadyCompleted;
// a missing one yields ErrGiveawayNotFound.
func (s *GiveawayService) AssignWinner(ctx context.Context, tx *gorm.DB, giveawayID, entryID string, at time.Time) error {
	if tx == nil {
		tx = s.DB
	}
	err := s.Repo.AssignWinner(ctx, tx, giveawayID, entryID, at.Unix())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.Repo.GetGiveaway(ctx, tx, giveawayID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGiveawayNotFound
		}
		return err
	}
	return ErrAlreadyCompleted
}

// Detail returns a giveaway together with a page of its entries in creation
// order and the total entry count. Invalid page/pageSize fall back to
// defaults.
func (s *GiveawayService) Detail(ctx context.Context, giveawayID string, page, pageSize int) (*domain.Giveaway, []domain.Entry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	g, err := s.Get(ctx, giveawayID)
	if err != nil {
		return nil, nil, 0, err
	}
	total, err := s.Repo.CountEntries(ctx, s.DB, giveawayID)
	if err != nil {
		return nil, nil, 0, err
	}
	if total == 0 {
		return g, []domain.Entry{}, 0, nil
	}

	items, err := s.Repo.ListEntriesPage(ctx, s.DB, giveawayID, offset, pageSize)
	if err != nil {
		return nil, nil, 0, err
	}
	return g, items, total, nil
}

func (s *GiveawayService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// normalizeText trims surrounding whitespace and applies Unicode NFC so the
// rune limits count what the user sees.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
