// Notification HTTP handler.
//
// This file exposes the internal notification dispatch endpoint:
//   - POST /send-payment-notification
//
// It is invoked by the webhook flow (and by operators for manual resends);
// the delivery backend behind the Notifier interface is currently a logging
// stub.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalform/go-registry-backend/internal/http/middleware"
)

// SendNotificationRequest is the JSON payload for dispatching one email.
type SendNotificationRequest struct {
	To      string `json:"to" binding:"required,email" example:"client@example.ci"`
	Subject string `json:"subject" binding:"required" example:"Confirmation de paiement - LegalForm"`
	HTML    string `json:"html" binding:"required"`
}

// SendPaymentNotification godoc
// @ID          sendPaymentNotification
// @Summary     Dispatch a payment notification email
// @Description Hands the email to the configured delivery backend. Internal endpoint.
// @Tags        Notifications
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SendNotificationRequest  true  "Notification payload"
//
// @Success     200  {object}  map[string]bool
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     500  {object}  handlers.ErrorResponse  "Dispatch failed"
// @Router      /send-payment-notification [post]
func (h *Handlers) SendPaymentNotification(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid notification payload")
		return
	}

	if err := h.notifier.Send(c.Request.Context(), req.To, req.Subject, req.HTML); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Str("to", req.To).Msg("notification dispatch failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "notification dispatch failed")
		return
	}

	ok(c, http.StatusOK, gin.H{"success": true})
}
