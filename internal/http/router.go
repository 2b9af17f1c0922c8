// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-giveaway-backend/docs" // swagger docs registration
	"github.com/tbourn/go-giveaway-backend/internal/config"
	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/http/handlers"
	"github.com/tbourn/go-giveaway-backend/internal/http/middleware"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
	"github.com/tbourn/go-giveaway-backend/internal/services"
)

// giveawayRepoShim adapts the repository free functions to the
// services.GiveawayRepo interface expected by GiveawayService.
type giveawayRepoShim struct{}

// CreateGiveaway proxies repo.CreateGiveaway.
func (giveawayRepoShim) CreateGiveaway(ctx context.Context, db *gorm.DB, title string, description *string, now int64) (*domain.Giveaway, error) {
	return repo.CreateGiveaway(ctx, db, title, description, now)
}

// GetGiveaway proxies repo.GetGiveaway.
func (giveawayRepoShim) GetGiveaway(ctx context.Context, db *gorm.DB, id string) (*domain.Giveaway, error) {
	return repo.GetGiveaway(ctx, db, id)
}

// ListGiveaways proxies repo.ListGiveaways.
func (giveawayRepoShim) ListGiveaways(ctx context.Context, db *gorm.DB, status string) ([]domain.Giveaway, error) {
	return repo.ListGiveaways(ctx, db, status)
}

// AssignWinner proxies repo.AssignWinner.
func (giveawayRepoShim) AssignWinner(ctx context.Context, db *gorm.DB, giveawayID, entryID string, now int64) error {
	return repo.AssignWinner(ctx, db, giveawayID, entryID, now)
}

// CountEntries proxies repo.CountEntries.
func (giveawayRepoShim) CountEntries(ctx context.Context, db *gorm.DB, giveawayID string) (int64, error) {
	return repo.CountEntries(ctx, db, giveawayID)
}

// ListEntriesPage proxies repo.ListEntriesPage.
func (giveawayRepoShim) ListEntriesPage(ctx context.Context, db *gorm.DB, giveawayID string, offset, limit int) ([]domain.Entry, error) {
	return repo.ListEntriesPage(ctx, db, giveawayID, offset, limit)
}

// NewWindowStore returns the window limiter store selected by
// RATE_LIMIT_BACKEND. The closer is nil for the in-memory store.
func NewWindowStore(cfg config.Config) (middleware.WindowStore, io.Closer) {
	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return middleware.NewRedisWindowStore(client), client
	}
	return middleware.NewMemoryWindowStore(), nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath. A nil store selects the
// in-memory window store.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with address/PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiters to allow bypass on replay)
//  8. Token-bucket rate limiter per client address
//  9. CORS and Security headers
//
// Per-route fixed-window limiters sit on the public and auth groups, and
// RequireSession guards the admin group.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store middleware.WindowStore, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (string, bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return "", false, nil
			}
			if err != nil {
				return "", false, err
			}
			return rec.ResourceID, true, nil
		},
	))

	// 8) Token-bucket rate limiter per client address
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientAddress())
	r.Use(rl.Handler())

	// 9) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, handlers.MsgRouteNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	giveawaySvc := services.NewGiveawayService(db, giveawayRepoShim{})
	admissionSvc := &services.AdmissionService{DB: db}
	winnerSvc := &services.WinnerService{DB: db, Registry: giveawaySvc}
	sessionSvc := &services.SessionService{
		DB:              db,
		PasswordHash:    []byte(cfg.Auth.PasswordHash),
		SessionDuration: cfg.Auth.SessionDuration,
	}
	h := handlers.New(giveawaySvc, admissionSvc, winnerSvc, sessionSvc, handlers.Options{
		CookieSecure:   cfg.Auth.CookieSecure,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	if store == nil {
		store = middleware.NewMemoryWindowStore()
	}
	windows := middleware.NewWindowLimiter(store, cfg.RateLimit.Window)
	publicLimit := windows.Handler("public", cfg.RateLimit.PublicMax)
	authLimit := windows.Handler("auth", cfg.RateLimit.AuthMax)
	compress := gzip.Gzip(gzip.DefaultCompression)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Public
		api.POST("/enter/:id", publicLimit, h.SubmitEntry)
		api.GET("/giveaways", publicLimit, compress, h.ListGiveaways)
		api.GET("/giveaways/:id", publicLimit, h.GetGiveaway)

		// Auth
		auth := api.Group("/auth", authLimit)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)

		// Admin
		admin := api.Group("/admin", middleware.RequireSession(sessionSvc))
		admin.POST("/giveaways", h.CreateGiveaway)
		admin.GET("/giveaways", compress, h.ListAllGiveaways)
		admin.GET("/giveaways/:id", compress, h.GetGiveawayDetail)
		admin.POST("/pick-winner/:id", h.PickWinner)
	}
}

// corsMiddleware returns the CORS chain. Without an allowlist every origin
// is accepted without credentials; with one, listed origins are echoed and
// may send the admin session cookie.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    exposeHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
