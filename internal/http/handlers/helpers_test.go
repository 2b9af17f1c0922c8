package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/http/middleware"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
	"github.com/tbourn/go-giveaway-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// testGiveawayRepo implements services.GiveawayRepo using the repo package.
type testGiveawayRepo struct{}

func (testGiveawayRepo) CreateGiveaway(ctx context.Context, db *gorm.DB, title string, description *string, now int64) (*domain.Giveaway, error) {
	return repo.CreateGiveaway(ctx, db, title, description, now)
}

func (testGiveawayRepo) GetGiveaway(ctx context.Context, db *gorm.DB, id string) (*domain.Giveaway, error) {
	return repo.GetGiveaway(ctx, db, id)
}

func (testGiveawayRepo) ListGiveaways(ctx context.Context, db *gorm.DB, status string) ([]domain.Giveaway, error) {
	return repo.ListGiveaways(ctx, db, status)
}

func (testGiveawayRepo) AssignWinner(ctx context.Context, db *gorm.DB, giveawayID, entryID string, now int64) error {
	return repo.AssignWinner(ctx, db, giveawayID, entryID, now)
}

func (testGiveawayRepo) CountEntries(ctx context.Context, db *gorm.DB, giveawayID string) (int64, error) {
	return repo.CountEntries(ctx, db, giveawayID)
}

func (testGiveawayRepo) ListEntriesPage(ctx context.Context, db *gorm.DB, giveawayID string, offset, limit int) ([]domain.Entry, error) {
	return repo.ListEntriesPage(ctx, db, giveawayID, offset, limit)
}

// realServices builds Handlers over a fresh store.
func realServices(t *testing.T) (*Handlers, *gorm.DB) {
	t.Helper()
	db := newHandlerDB(t)
	registry := services.NewGiveawayService(db, testGiveawayRepo{})
	h := New(
		registry,
		&services.AdmissionService{DB: db},
		&services.WinnerService{DB: db, Registry: registry},
		stubSessions{},
		Options{IdempotencyTTL: time.Hour},
	)
	return h, db
}

// ---------- flexible service stubs ----------

type stubGiveaways struct {
	create     func(context.Context, string, *string) (*domain.Giveaway, error)
	get        func(context.Context, string) (*domain.Giveaway, error)
	listActive func(context.Context) ([]domain.Giveaway, error)
	listAll    func(context.Context) ([]domain.Giveaway, error)
	detail     func(context.Context, string, int, int) (*domain.Giveaway, []domain.Entry, int64, error)
}

func (s stubGiveaways) Create(ctx context.Context, title string, d *string) (*domain.Giveaway, error) {
	if s.create != nil {
		return s.create(ctx, title, d)
	}
	return &domain.Giveaway{ID: "g", Title: title, Description: d, Status: domain.StatusActive}, nil
}

func (s stubGiveaways) Get(ctx context.Context, id string) (*domain.Giveaway, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Giveaway{ID: id, Status: domain.StatusActive}, nil
}

func (s stubGiveaways) ListActive(ctx context.Context) ([]domain.Giveaway, error) {
	if s.listActive != nil {
		return s.listActive(ctx)
	}
	return []domain.Giveaway{}, nil
}

func (s stubGiveaways) ListAll(ctx context.Context) ([]domain.Giveaway, error) {
	if s.listAll != nil {
		return s.listAll(ctx)
	}
	return []domain.Giveaway{}, nil
}

func (s stubGiveaways) Detail(ctx context.Context, id string, page, pageSize int) (*domain.Giveaway, []domain.Entry, int64, error) {
	if s.detail != nil {
		return s.detail(ctx, id, page, pageSize)
	}
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, 0, err
	}
	return g, []domain.Entry{}, 0, nil
}

type stubAdmission func(ctx context.Context, giveawayID, addr string) (string, error)

func (f stubAdmission) SubmitEntry(ctx context.Context, giveawayID, addr string) (string, error) {
	return f(ctx, giveawayID, addr)
}

type stubWinners func(ctx context.Context, giveawayID string) (*domain.Entry, error)

func (f stubWinners) PickWinner(ctx context.Context, giveawayID string) (*domain.Entry, error) {
	return f(ctx, giveawayID)
}

type stubSessions struct {
	login   func(context.Context, string) (string, time.Time, error)
	destroy func(context.Context, string) error
}

func (s stubSessions) Login(ctx context.Context, password string) (string, time.Time, error) {
	if s.login != nil {
		return s.login(ctx, password)
	}
	return "", time.Time{}, services.ErrInvalidPassword
}

func (s stubSessions) Destroy(ctx context.Context, token string) error {
	if s.destroy != nil {
		return s.destroy(ctx, token)
	}
	return nil
}

// ---------- router + request helpers ----------

const testID = "141add05-4415-4938-b5a1-17e0d3171aff"

// newEngine mounts every handler on a bare engine with RequestID and the
// idempotency validator backed by db (when non-nil).
func newEngine(h *Handlers, db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	if db != nil {
		r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
			func(ctx context.Context, scope, key string, now time.Time) (string, bool, error) {
				rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
				if err != nil {
					return "", false, nil
				}
				return rec.ResourceID, true, nil
			}))
	}
	r.POST("/enter/:id", h.SubmitEntry)
	r.GET("/giveaways", h.ListGiveaways)
	r.GET("/giveaways/:id", h.GetGiveaway)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/admin/giveaways", h.CreateGiveaway)
	r.GET("/admin/giveaways", h.ListAllGiveaways)
	r.GET("/admin/giveaways/:id", h.GetGiveawayDetail)
	r.POST("/admin/pick-winner/:id", h.PickWinner)
	return r
}

func do(r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, isStr := body.(string); isStr {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope decodes a response body; data is left raw for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, w)
	if !env.Success {
		t.Fatalf("expected success, got %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("data: %v", err)
	}
}
