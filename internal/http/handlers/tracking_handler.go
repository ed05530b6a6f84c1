// Public tracking HTTP handler.
//
// This file exposes the anonymous dossier lookup endpoint:
//   - POST /secure-public-tracking
//
// Rate limiting is enforced per (caller IP, phone) by the tracking service;
// this handler only shapes the transport.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/http/middleware"
	"github.com/legalform/go-registry-backend/internal/services"
)

// PublicTrackingRequest is the JSON payload for a tracking lookup.
type PublicTrackingRequest struct {
	// Phone is the number the dossiers were registered under (8–20 chars).
	Phone string `json:"phone" binding:"required" example:"+2250101010101"`
}

// PublicTrackingResponse wraps the resolved dossiers.
type PublicTrackingResponse struct {
	Requests []domain.TrackedRequest `json:"requests"`
}

// SecurePublicTracking godoc
// @ID          securePublicTracking
// @Summary     Look up dossiers by phone number
// @Description Returns the restricted projection of all requests registered under a phone number. Anonymous, rate-limited per caller IP and phone.
// @Tags        Tracking
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.PublicTrackingRequest  true  "Lookup payload"
//
// @Success     200  {object}  handlers.PublicTrackingResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid phone number"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many attempts; blockedUntil set when blocked"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /secure-public-tracking [post]
func (h *Handlers) SecurePublicTracking(c *gin.Context) {
	var req PublicTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid phone number format")
		return
	}

	requests, err := h.trackingSvc.Lookup(c.Request.Context(), req.Phone, c.ClientIP())
	if err != nil {
		var rl *services.RateLimitedError
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid phone number format")
		case errors.As(err, &rl):
			failWith(c, http.StatusTooManyRequests, ErrorResponse{
				Code:         ErrCodeRateLimited,
				Message:      "too many requests, please try again later",
				BlockedUntil: rl.BlockedUntil,
			})
		default:
			lg := middleware.LoggerFrom(c)
			lg.Error().Err(err).Msg("tracking lookup failed")
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		}
		return
	}

	ok(c, http.StatusOK, PublicTrackingResponse{Requests: requests})
}
