// Payment HTTP handlers.
//
// This file exposes the payment initiation endpoint:
//   - POST /create-payment   (authenticated; returns a hosted-checkout URL)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate service errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/http/middleware"
	"github.com/legalform/go-registry-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// PaymentService defines the payment initiation operation consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must honor
// the provided context for cancellation and timeouts.
type PaymentService interface {
	// Initiate authorizes userID against the request and returns a checkout
	// URL plus the provider transaction id.
	Initiate(ctx context.Context, userID string, p services.InitiateParams) (*services.InitiateResult, error)
}

// WebhookService processes inbound provider callbacks.
type WebhookService interface {
	// Handle verifies and applies one webhook delivery, returning the
	// resulting internal status.
	Handle(ctx context.Context, rawBody []byte, signatureHeader string) (string, error)
}

// TrackingService resolves rate-limited public lookups.
type TrackingService interface {
	// Lookup returns the restricted projection of requests for a phone.
	Lookup(ctx context.Context, phone, callerIP string) ([]domain.TrackedRequest, error)
}

// Notifier dispatches a notification email.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for payments, webhooks, tracking, and
// notifications. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	paySvc      PaymentService
	webhookSvc  WebhookService
	trackingSvc TrackingService
	notifier    Notifier
}

// New constructs and returns a Handlers instance bound to the given services.
func New(paySvc PaymentService, webhookSvc WebhookService, trackingSvc TrackingService, notifier Notifier) *Handlers {
	return &Handlers{paySvc: paySvc, webhookSvc: webhookSvc, trackingSvc: trackingSvc, notifier: notifier}
}

//
// DTOs
//

// CreatePaymentRequest is the JSON payload for initiating a payment.
type CreatePaymentRequest struct {
	// Amount to charge, in the smallest currency unit.
	Amount int64 `json:"amount" binding:"required,gt=0" example:"25000"`
	// Description shown on the provider checkout page.
	Description string `json:"description" binding:"required" example:"Company formation - SARL"`
	// RequestID identifies the request being paid for.
	RequestID string `json:"requestId" binding:"required" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	// RequestType selects the request category; defaults to "company".
	RequestType string `json:"requestType" binding:"omitempty,oneof=company service" example:"company"`

	CustomerEmail string `json:"customerEmail" binding:"required,email" example:"client@example.ci"`
	CustomerName  string `json:"customerName" binding:"required" example:"Awa Kone"`
	CustomerPhone string `json:"customerPhone" binding:"required" example:"+2250101010101"`
}

// CreatePaymentResponse carries the checkout redirect handle.
type CreatePaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentURL    string `json:"paymentUrl"`
	TransactionID string `json:"transactionId"`
}

// CreatePayment godoc
// @ID          createPayment
// @Summary     Initiate a payment for a request
// @Description Creates a provider transaction for a request owned by the caller and returns the hosted-checkout URL.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  true   "Bearer token"
// @Param       Idempotency-Key  header  string  false  "Replay-safe retry key"
// @Param       body             body    handlers.CreatePaymentRequest  true  "Payment payload"
//
// @Success     200  {object}  handlers.CreatePaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing/invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Request owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Payment already confirmed"
// @Failure     500  {object}  handlers.ErrorResponse  "Provider or internal error"
// @Router      /create-payment [post]
func (h *Handlers) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payment payload")
		return
	}

	uid := middleware.UserID(c)
	if uid == "" {
		// AuthRequired normally rejects first; defense against misrouting.
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	res, err := h.paySvc.Initiate(c.Request.Context(), uid, services.InitiateParams{
		Amount:         req.Amount,
		Description:    req.Description,
		RequestID:      req.RequestID,
		RequestType:    domain.RequestType(req.RequestType),
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
		case errors.Is(err, services.ErrNotOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you can only create payments for your own requests")
		case errors.Is(err, services.ErrAlreadyPaid):
			fail(c, http.StatusConflict, ErrCodeConflict, "payment already confirmed for this request")
		case errors.Is(err, services.ErrProviderFailure):
			fail(c, http.StatusInternalServerError, ErrCodePaymentFailed, "payment initiation failed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		}
		return
	}

	ok(c, http.StatusOK, CreatePaymentResponse{
		Success:       true,
		PaymentURL:    res.PaymentURL,
		TransactionID: res.TransactionID,
	})
}
