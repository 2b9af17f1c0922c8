// Entry HTTP handler.
//
// POST /enter/{id} admits the calling client into an active giveaway. The
// client is identified only by a hash of its address; the response discloses
// the anonymous id and nothing else.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-giveaway-backend/internal/http/middleware"
	"github.com/tbourn/go-giveaway-backend/internal/identity"
	"github.com/tbourn/go-giveaway-backend/internal/services"
)

// EntryResponse is the payload returned after a successful entry.
type EntryResponse struct {
	AnonymousID string `json:"anonymousId" example:"5f0c5d1e-2f5b-4f3e-9a51-2cbd4c1f0e7a"`
}

// SubmitEntry godoc
// @ID          submitEntry
// @Summary     Enter a giveaway
// @Description Enters the caller into an active giveaway. Each client address may enter a giveaway once.
// @Tags        Public
// @Produce     json
//
// @Param       id  path  string  true  "Giveaway ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.EntryResponse}
// @Header      200  {string} X-RateLimit-Remaining "Requests left in the current window"
// @Failure     400  {object} handlers.ErrorResponse "Invalid id, not available or already entered"
// @Failure     429  {object} handlers.ErrorResponse "Too many requests"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /enter/{id} [post]
func (h *Handlers) SubmitEntry(c *gin.Context) {
	id, valid := giveawayID(c)
	if !valid {
		return
	}

	anonID, err := h.admission.SubmitEntry(c.Request.Context(), id, identity.ClientAddress(c.Request))
	switch {
	case err == nil:
		middleware.ObserveEntry("accepted")
	case errors.Is(err, services.ErrAlreadyEntered):
		middleware.ObserveEntry("duplicate")
	case errors.Is(err, services.ErrNotAvailable):
		middleware.ObserveEntry("unavailable")
	default:
		middleware.ObserveEntry("error")
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, EntryResponse{AnonymousID: anonID})
}
