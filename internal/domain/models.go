// Package domain defines the persistence models for giveaways, entries, and
// admin sessions. These types are mapped with GORM and form the core data
// layer of the giveaway service.
//
// All timestamps are integer seconds since the Unix epoch. GORM's automatic
// time tracking is disabled on these fields so that callers control the clock.
package domain

// Giveaway status values.
const (
	StatusActive    = "active"
	StatusClosed    = "closed"
	StatusCompleted = "completed"
)

// Giveaway is a campaign created by the administrator that anonymous
// visitors can enter once per address.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned at creation.
//   - Title: trimmed, non-empty, at most 200 characters.
//   - Description: optional; nil (absent) is distinct from "" (empty).
//   - Status: active | closed | completed (enforced by DB constraint).
//   - WinnerID: set exactly once when a winner is drawn; implies completed.
//   - EntryCount: derived on every read from the entries table, never stored.
//   - CreatedAt / UpdatedAt: unix seconds; UpdatedAt refreshes on winner assignment.
type Giveaway struct {
	ID          string  `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string  `json:"title"       gorm:"type:varchar(200);not null"`
	Description *string `json:"description" gorm:"type:varchar(1000)"`
	Status      string  `json:"status"      gorm:"type:varchar(16);not null;default:'active';index;check:status IN ('active','closed','completed')"`
	WinnerID    *string `json:"winner_id"   gorm:"type:char(36)"`
	EntryCount  int64   `json:"entry_count" gorm:"->;-:migration"`
	CreatedAt   int64   `json:"created_at"  gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   int64   `json:"updated_at"  gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the database table name for Giveaway.
func (Giveaway) TableName() string { return "giveaways" }

// Entry is a single anonymous submission to a giveaway.
//
// The (GiveawayID, IPHash) pair is unique at the store level, which is the
// source of truth for one-entry-per-address. IPHash is never serialized.
type Entry struct {
	ID          string `json:"id"           gorm:"type:char(36);primaryKey"`
	GiveawayID  string `json:"giveaway_id"  gorm:"type:char(36);not null;index:idx_entries_giveaway,priority:1;uniqueIndex:ux_entries_giveaway_ip,priority:1"`
	AnonymousID string `json:"anonymous_id" gorm:"type:char(36);not null;uniqueIndex"`
	IPHash      string `json:"-"            gorm:"type:char(64);not null;uniqueIndex:ux_entries_giveaway_ip,priority:2"`
	CreatedAt   int64  `json:"created_at"   gorm:"not null;index:idx_entries_giveaway,priority:2;autoCreateTime:false"`

	// Giveaway is the owning campaign. Entries are cascade-deleted with it.
	Giveaway Giveaway `json:"-" gorm:"foreignKey:GiveawayID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Entry.
func (Entry) TableName() string { return "entries" }

// AdminSession is an opaque bearer token issued after a successful login.
// A session is valid iff now < ExpiresAt; expired rows are left in place.
type AdminSession struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	ExpiresAt int64  `gorm:"not null;index"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false"`
}

// TableName returns the database table name for AdminSession.
func (AdminSession) TableName() string { return "admin_sessions" }
