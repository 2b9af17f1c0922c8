// Package handlers wires Gin endpoints to the giveaway application services.
//
// Handlers are transport-thin: they validate path and body input, call the
// services, and translate results into the response envelopes defined in
// response.go.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
)

//
// Service contracts (context-aware)
//

// GiveawayService defines the registry operations consumed by HTTP handlers.
type GiveawayService interface {
	// Create validates and stores a new active giveaway.
	Create(ctx context.Context, title string, description *string) (*domain.Giveaway, error)
	// Get returns one giveaway with its entry count.
	Get(ctx context.Context, id string) (*domain.Giveaway, error)
	// ListActive returns active giveaways, newest first.
	ListActive(ctx context.Context) ([]domain.Giveaway, error)
	// ListAll returns every giveaway, newest first.
	ListAll(ctx context.Context) ([]domain.Giveaway, error)
	// Detail returns the giveaway, a page of its entries and the total count.
	Detail(ctx context.Context, giveawayID string, page, pageSize int) (*domain.Giveaway, []domain.Entry, int64, error)
}

// AdmissionService admits anonymous entries.
type AdmissionService interface {
	SubmitEntry(ctx context.Context, giveawayID, clientAddress string) (string, error)
}

// WinnerService draws winners.
type WinnerService interface {
	PickWinner(ctx context.Context, giveawayID string) (*domain.Entry, error)
}

// SessionService issues and revokes admin sessions.
type SessionService interface {
	Login(ctx context.Context, password string) (string, time.Time, error)
	Destroy(ctx context.Context, token string) error
}

//
// Handler wiring
//

// Options carries transport settings that are not owned by any service.
type Options struct {
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// IdempotencyTTL is how long an Idempotency-Key on giveaway creation
	// is remembered. Zero disables recording.
	IdempotencyTTL time.Duration
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Handlers groups the public, auth and admin endpoints.
type Handlers struct {
	giveaways GiveawayService
	admission AdmissionService
	winners   WinnerService
	sessions  SessionService
	opts      Options
}

// New constructs a Handlers bound to the given services and registers the
// custom binding validators.
func New(g GiveawayService, a AdmissionService, w WinnerService, s SessionService, opts Options) *Handlers {
	registerValidators()
	return &Handlers{giveaways: g, admission: a, winners: w, sessions: s, opts: opts}
}

func (h *Handlers) now() time.Time {
	if h.opts.Now != nil {
		return h.opts.Now()
	}
	return time.Now()
}

// giveawayID returns the :id path parameter when it is a UUID in canonical
// 8-4-4-4-12 form. Otherwise it writes a 400 and returns false.
func giveawayID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidID)
		return "", false
	}
	return id, true
}
