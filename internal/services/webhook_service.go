// Package services – WebhookService
//
// This file implements the payment status state machine driven by provider
// webhooks. A delivery is authenticated against the raw body (signature.go),
// parsed, mapped onto an internal status, applied transactionally to the
// request row its metadata points at, and — on confirmation — followed by a
// best-effort notification dispatch. Deliveries are replay-safe: reapplying
// a terminal status is a no-op worth a fresh 200, and terminal states are
// never regressed by late non-terminal deliveries.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/repo"
)

// WebhookService applies provider transaction callbacks to request rows.
type WebhookService struct {
	// DB is the database handle used for status updates.
	DB *gorm.DB
	// Secret is the shared HMAC secret for signature verification. Empty
	// means the deployment is misconfigured; Handle refuses to process.
	Secret string
	// Notifier dispatches the payment confirmation email. Failures are
	// logged and swallowed: the status transition has already committed.
	Notifier Notifier
	// Log receives processing context (transaction and request ids).
	Log zerolog.Logger
}

// webhookPayload is the provider delivery shape. The transaction may arrive
// under "entity" or at the top level.
type webhookPayload struct {
	Entity *webhookEntity `json:"entity"`
	webhookEntity
}

type webhookEntity struct {
	ID             json.Number     `json:"id"`
	Status         string          `json:"status"`
	CustomMetadata webhookMetadata `json:"custom_metadata"`
}

type webhookMetadata struct {
	RequestID   string `json:"request_id"`
	RequestType string `json:"request_type"`
}

// Handle processes one webhook delivery and returns the resulting internal
// status.
//
// Errors map onto the endpoint contract:
//   - ErrSecretNotConfigured: deployment misconfiguration (500, distinct code)
//   - ErrInvalidSignature: authentication failure, nothing touched (401)
//   - ErrMissingRequestID: malformed payload, nothing touched (400)
//   - ErrRequestNotFound: metadata points at a missing row (400)
//   - other: storage failure (500)
func (s *WebhookService) Handle(ctx context.Context, rawBody []byte, signatureHeader string) (string, error) {
	if s.Secret == "" {
		s.Log.Error().Msg("webhook shared secret not configured")
		return "", ErrSecretNotConfigured
	}

	// Raw bytes first: parsing before verification would break the MAC.
	if !VerifySignature(rawBody, signatureHeader, s.Secret) {
		s.Log.Warn().Msg("webhook signature rejected")
		return "", ErrInvalidSignature
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		s.Log.Warn().Err(err).Msg("webhook body is not valid JSON")
		return "", ErrMissingRequestID
	}
	entity := payload.webhookEntity
	if payload.Entity != nil {
		entity = *payload.Entity
	}

	if entity.CustomMetadata.RequestID == "" {
		s.Log.Warn().Str("transaction_id", entity.ID.String()).Msg("webhook payload lacks request_id")
		return "", ErrMissingRequestID
	}

	requestID := entity.CustomMetadata.RequestID
	requestType := domain.RequestType(entity.CustomMetadata.RequestType).Normalize()
	newStatus := domain.MapProviderStatus(entity.Status)

	lg := s.Log.With().
		Str("transaction_id", entity.ID.String()).
		Str("provider_status", entity.Status).
		Str("request_id", requestID).
		Str("request_type", string(requestType)).
		Logger()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := repo.RequestStatus(ctx, tx, requestType, requestID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}

		// A late non-terminal delivery must not un-confirm or un-fail a
		// settled request. Terminal replays still rewrite the same value.
		if domain.IsTerminal(current) && !domain.IsTerminal(newStatus) {
			lg.Info().Str("current", current).Str("mapped", newStatus).
				Msg("ignoring non-terminal delivery for settled request")
			newStatus = current
			return nil
		}

		return repo.UpdatePaymentOutcome(ctx, tx, requestType, requestID, newStatus, domain.PaymentStatusPaid)
	})
	if err != nil {
		lg.Error().Err(err).Msg("webhook update failed")
		return "", err
	}

	lg.Info().Str("status", newStatus).Msg("request status updated")

	if newStatus == domain.StatusPaymentConfirmed {
		s.notifyConfirmed(ctx, lg, requestType, requestID)
	}

	return newStatus, nil
}

// notifyConfirmed dispatches the confirmation email. Every failure path logs
// and returns: the committed status transition is never rolled back or
// surfaced as a webhook error on account of notification trouble.
func (s *WebhookService) notifyConfirmed(ctx context.Context, lg zerolog.Logger, rt domain.RequestType, requestID string) {
	contact, err := repo.GetRequestContact(ctx, s.DB, rt, requestID)
	if err != nil {
		lg.Error().Err(err).Msg("could not load contact for confirmation email")
		return
	}

	trackingNumber := contact.TrackingNumber
	if trackingNumber == "" {
		trackingNumber = requestID
	}
	html, err := BuildPaymentConfirmation(contact.ContactName, trackingNumber)
	if err != nil {
		lg.Error().Err(err).Msg("could not render confirmation email")
		return
	}

	if err := s.Notifier.Send(ctx, contact.Email, PaymentConfirmationSubject, html); err != nil {
		lg.Error().Err(err).Str("to", contact.Email).Msg("confirmation email dispatch failed")
		return
	}
	lg.Info().Str("to", contact.Email).Msg("confirmation email dispatched")
}
