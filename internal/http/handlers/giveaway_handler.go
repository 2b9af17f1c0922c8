// Public giveaway HTTP handlers.
//
// This file exposes the read-only public endpoints:
//   - GET /giveaways        (active giveaways, weak ETag support)
//   - GET /giveaways/{id}   (single giveaway)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-giveaway-backend/internal/domain"
	"github.com/tbourn/go-giveaway-backend/internal/repo"
	"github.com/tbourn/go-giveaway-backend/internal/services"
)

// ListGiveaways godoc
// @ID          listGiveaways
// @Summary     List active giveaways
// @Description Returns active giveaways, newest first, with live entry counts. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Public
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"giveaways:active:1:0:1700000000\")
//
// @Success     200  {object} handlers.SuccessResponse{data=[]domain.Giveaway}
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     429  {object} handlers.ErrorResponse "Too many requests"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /giveaways [get]
func (h *Handlers) ListGiveaways(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.giveaways.(*services.GiveawayService); ok {
		db = svc.DB
	}
	if db != nil {
		st, err := repo.GiveawaysStats(ctx, db, domain.StatusActive)
		if err == nil {
			etag := fmt.Sprintf(`W/"giveaways:active:%d:%d:%d"`, st.Count, st.Entries, st.MaxUpdatedAt)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.giveaways.ListActive(ctx)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetGiveaway godoc
// @ID          getGiveaway
// @Summary     Get a giveaway
// @Description Returns one giveaway by id regardless of status.
// @Tags        Public
// @Produce     json
//
// @Param       id  path  string  true  "Giveaway ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=domain.Giveaway}
// @Failure     400  {object} handlers.ErrorResponse "Invalid giveaway ID"
// @Failure     404  {object} handlers.ErrorResponse "Giveaway not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /giveaways/{id} [get]
func (h *Handlers) GetGiveaway(c *gin.Context) {
	id, valid := giveawayID(c)
	if !valid {
		return
	}
	g, err := h.giveaways.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}
