package repo

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

// newTestDB opens a migrated file-backed SQLite database under t.TempDir().
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func mustGiveaway(t *testing.T, db *gorm.DB, title string, now int64) *domain.Giveaway {
	t.Helper()
	g, err := CreateGiveaway(ctxbg, db, title, nil, now)
	if err != nil {
		t.Fatalf("CreateGiveaway: %v", err)
	}
	return g
}

func mustEntry(t *testing.T, db *gorm.DB, giveawayID, id, ipHash string, now int64) *domain.Entry {
	t.Helper()
	e := &domain.Entry{ID: id, GiveawayID: giveawayID, AnonymousID: "anon-" + id, IPHash: ipHash, CreatedAt: now}
	if err := CreateEntry(ctxbg, db, e); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	return e
}
