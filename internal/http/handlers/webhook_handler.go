// Webhook HTTP handler.
//
// This file exposes the provider callback endpoint:
//   - POST /payment-webhook   (signed; anonymous)
//
// The handler reads the raw body before any JSON parsing — signature
// verification runs over the exact bytes the provider signed — and delegates
// everything else to the webhook service.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalform/go-registry-backend/internal/http/middleware"
	"github.com/legalform/go-registry-backend/internal/services"
)

// signatureHeader is the provider's webhook signature header.
const signatureHeader = "x-fedapay-signature"

// WebhookResponse acknowledges a processed delivery.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// PaymentWebhook godoc
// @ID          paymentWebhook
// @Summary     Provider payment callback
// @Description Verifies the delivery signature, applies the status transition, and dispatches the confirmation notification.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       x-fedapay-signature  header  string  true  "HMAC-SHA256 hex signature of the raw body"
//
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing request_id"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid signature"
// @Failure     500  {object}  handlers.ErrorResponse  "Configuration or internal error"
// @Router      /payment-webhook [post]
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read request body")
		return
	}

	status, err := h.webhookSvc.Handle(c.Request.Context(), rawBody, c.GetHeader(signatureHeader))
	if err != nil {
		switch err {
		case services.ErrSecretNotConfigured:
			fail(c, http.StatusInternalServerError, ErrCodeConfigurationError, "webhook secret not configured")
		case services.ErrInvalidSignature:
			fail(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "invalid signature")
		case services.ErrMissingRequestID:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing request_id")
		case services.ErrRequestNotFound:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown request_id")
		default:
			lg := middleware.LoggerFrom(c)
			lg.Error().Err(err).Msg("webhook processing failed")
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		}
		return
	}

	ok(c, http.StatusOK, WebhookResponse{Success: true, Status: status})
}
