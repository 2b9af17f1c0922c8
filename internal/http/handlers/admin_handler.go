// Admin HTTP handlers. All routes in this file sit behind RequireSession.
//
//   - POST /admin/giveaways               (create, Idempotency-Key aware)
//   - GET  /admin/giveaways               (list all statuses)
//   - GET  /admin/giveaways/{id}          (detail with paginated entries)
//   - POST /admin/pick-winner/{id}        (draw and commit a winner)
//
// Idempotency:
// If the client supplies an Idempotency-Key header on create and a previous
// create with the same key succeeded, the original giveaway is returned with
// `Idempotency-Replayed: true` and nothing new is stored.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/http/middleware"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
	"github.com/tbourn/go-giveaway-backend/internal/services"
	"github.com/tbourn/go-giveaway-backend/internal/utils"
)

//
// DTOs
//

// CreateGiveawayRequest is the JSON payload for creating a giveaway.
type CreateGiveawayRequest struct {
	// Title is required and at most 200 characters after trimming.
	Title string `json:"title" binding:"notblank" example:"Summer sticker pack"`
	// Description is optional, at most 1000 characters.
	Description *string `json:"description" example:"Three winners get a full set."`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// GiveawayDetail is the admin view of one giveaway and a page of its entries.
type GiveawayDetail struct {
	Giveaway   *domain.Giveaway `json:"giveaway"`
	Entries    []domain.Entry   `json:"entries"`
	Pagination Pagination       `json:"pagination"`
}

// WinnerResponse carries the drawn entry, or null when the giveaway has no
// entries.
type WinnerResponse struct {
	Winner *domain.Entry `json:"winner"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 50
		maxPageSize     = 200
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// registryDB returns the store behind the giveaway service, if it is the
// concrete implementation.
func (h *Handlers) registryDB() *gorm.DB {
	if svc, ok := h.giveaways.(*services.GiveawayService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// CreateGiveaway godoc
// @ID          createGiveaway
// @Summary     Create a giveaway
// @Description Creates an active giveaway. Supports idempotency via the Idempotency-Key header (same key → same giveaway).
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateGiveawayRequest  true  "Giveaway"
//
// @Success     200  {object} handlers.SuccessResponse{data=domain.Giveaway}
// @Header      200  {string} Idempotency-Replayed "true when served from a previous request"
// @Failure     400  {object} handlers.ErrorResponse "Validation error"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Security    AdminSession
// @Router      /admin/giveaways [post]
func (h *Handlers) CreateGiveaway(c *gin.Context) {
	ctx := c.Request.Context()

	// Idempotency (replay path).
	if middleware.IsReplay(c) {
		if g, err := h.giveaways.Get(ctx, middleware.ReplayResourceID(c)); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, g)
			return
		}
	}

	var req CreateGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isValidationError(err) {
			failService(c, services.ErrTitleRequired)
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidBody)
		return
	}

	g, err := h.giveaways.Create(ctx, req.Title, req.Description)
	if err != nil {
		failService(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if key, has := middleware.GetIdempotencyKey(c); has && h.opts.IdempotencyTTL > 0 {
		if db := h.registryDB(); db != nil {
			_, err := repo.CreateIdempotency(ctx, db, middleware.IdempotencyScope(c), key, g.ID, http.StatusOK, h.opts.IdempotencyTTL)
			if err != nil && !errors.Is(err, repo.ErrDuplicate) {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
			}
		}
	}

	ok(c, http.StatusOK, g)
}

// ListAllGiveaways godoc
// @ID          listAllGiveaways
// @Summary     List all giveaways
// @Description Returns every giveaway regardless of status, newest first.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object} handlers.SuccessResponse{data=[]domain.Giveaway}
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Security    AdminSession
// @Router      /admin/giveaways [get]
func (h *Handlers) ListAllGiveaways(c *gin.Context) {
	items, err := h.giveaways.ListAll(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetGiveawayDetail godoc
// @ID          getGiveawayDetail
// @Summary     Giveaway detail
// @Description Returns a giveaway with a page of its entries in creation order.
// @Tags        Admin
// @Produce     json
//
// @Param       id         path   string  true   "Giveaway ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"         minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"      minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.GiveawayDetail}
// @Failure     400  {object} handlers.ErrorResponse "Invalid giveaway ID"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Giveaway not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Security    AdminSession
// @Router      /admin/giveaways/{id} [get]
func (h *Handlers) GetGiveawayDetail(c *gin.Context) {
	id, valid := giveawayID(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	g, entries, total, err := h.giveaways.Detail(ctx, id, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, GiveawayDetail{
		Giveaway: g,
		Entries:  entries,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// PickWinner godoc
// @ID          pickWinner
// @Summary     Pick a winner
// @Description Draws a uniformly random entry and completes the giveaway. Returns winner=null when there are no entries.
// @Tags        Admin
// @Produce     json
//
// @Param       id  path  string  true  "Giveaway ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.WinnerResponse}
// @Failure     400  {object} handlers.ErrorResponse "Invalid id or winner already selected"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Giveaway not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Security    AdminSession
// @Router      /admin/pick-winner/{id} [post]
func (h *Handlers) PickWinner(c *gin.Context) {
	id, valid := giveawayID(c)
	if !valid {
		return
	}

	winner, err := h.winners.PickWinner(c.Request.Context(), id)
	switch {
	case err == nil && winner == nil:
		middleware.ObserveWinnerPick("no_entries")
	case err == nil:
		middleware.ObserveWinnerPick("picked")
	case errors.Is(err, services.ErrAlreadyCompleted):
		middleware.ObserveWinnerPick("completed")
	case errors.Is(err, services.ErrGiveawayNotFound):
		middleware.ObserveWinnerPick("not_found")
	default:
		middleware.ObserveWinnerPick("error")
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, WinnerResponse{Winner: winner})
}
