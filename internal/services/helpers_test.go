package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
)

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// repoFuncs adapts the package-level repo functions to GiveawayRepo.
type repoFuncs struct{}

func (repoFuncs) CreateGiveaway(ctx context.Context, db *gorm.DB, title string, description *string, now int64) (*domain.Giveaway, error) {
	return repo.CreateGiveaway(ctx, db, title, description, now)
}
func (repoFuncs) GetGiveaway(ctx context.Context, db *gorm.DB, id string) (*domain.Giveaway, error) {
	return repo.GetGiveaway(ctx, db, id)
}
func (repoFuncs) ListGiveaways(ctx context.Context, db *gorm.DB, status string) ([]domain.Giveaway, error) {
	return repo.ListGiveaways(ctx, db, status)
}
func (repoFuncs) AssignWinner(ctx context.Context, db *gorm.DB, giveawayID, entryID string, now int64) error {
	return repo.AssignWinner(ctx, db, giveawayID, entryID, now)
}
func (repoFuncs) CountEntries(ctx context.Context, db *gorm.DB, giveawayID string) (int64, error) {
	return repo.CountEntries(ctx, db, giveawayID)
}
func (repoFuncs) ListEntriesPage(ctx context.Context, db *gorm.DB, giveawayID string, offset, limit int) ([]domain.Entry, error) {
	return repo.ListEntriesPage(ctx, db, giveawayID, offset, limit)
}

// newWinner builds a WinnerService committing through a real registry.
func newWinner(db *gorm.DB) *WinnerService {
	return &WinnerService{DB: db, Registry: NewGiveawayService(db, repoFuncs{})}
}

// fixedClock returns a Now func that yields t on every call.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
