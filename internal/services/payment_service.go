// Package services – PaymentService
//
// This file implements payment initiation: an authenticated owner asks for a
// hosted-checkout URL for one of their requests. The service authorizes the
// caller, creates the provider transaction with correlation metadata, mints
// the checkout token, best-effort marks the request payment_pending, and
// returns the redirect URL. An optional idempotency key makes client retries
// return the original transaction instead of charging twice.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/fedapay"
	"github.com/legalform/go-registry-backend/internal/repo"
)

// InitiateParams carries the payment initiation inputs.
type InitiateParams struct {
	Amount         int64
	Description    string
	RequestID      string
	RequestType    domain.RequestType
	CustomerEmail  string
	CustomerName   string
	CustomerPhone  string
	IdempotencyKey string // optional; empty disables replay protection
}

// InitiateResult is the checkout handle returned to the caller for redirect.
type InitiateResult struct {
	PaymentURL    string
	TransactionID string
}

// PaymentService implements the payment initiation use-case.
type PaymentService struct {
	// DB is the database handle for ownership checks and status writes.
	DB *gorm.DB
	// Provider is the external payment system.
	Provider fedapay.Provider
	// Currency is the fixed operating-region currency (ISO), e.g. "XOF".
	Currency string
	// Country is the customer phone country passed to the provider, e.g. "CI".
	Country string
	// CallbackURL points the provider at the webhook handler.
	CallbackURL string
	// ReceiptTTL bounds how long an idempotency key replays the original
	// transaction.
	ReceiptTTL time.Duration
	// Log receives initiation context.
	Log zerolog.Logger
}

// Initiate authorizes userID against the request named by p and creates a
// provider checkout.
//
// Errors:
//   - ErrRequestNotFound when the request row is absent.
//   - ErrNotOwner when the request belongs to a different user. The request
//     is left untouched.
//   - ErrAlreadyPaid when the request's payment is already settled; the
//     provider is never called.
//   - ErrProviderFailure (wrapped) when either provider call fails; no
//     request mutation has happened at that point.
//
// The payment_pending persist is best-effort: the provider transaction
// already exists, so a storage hiccup is logged rather than failing the
// response.
func (s *PaymentService) Initiate(ctx context.Context, userID string, p InitiateParams) (*InitiateResult, error) {
	rt := p.RequestType.Normalize()

	owner, status, err := s.loadRequest(ctx, rt, p.RequestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if owner != userID {
		return nil, ErrNotOwner
	}
	if domain.IsPaid(status) {
		return nil, ErrAlreadyPaid
	}

	lg := s.Log.With().
		Str("request_id", p.RequestID).
		Str("request_type", string(rt)).
		Str("user_id", userID).
		Logger()

	// Replay: a still-valid receipt for this key short-circuits the provider.
	if p.IdempotencyKey != "" {
		rec, err := repo.GetPaymentReceipt(ctx, s.DB, userID, p.RequestID, p.IdempotencyKey, time.Now().UTC())
		if err == nil {
			lg.Info().Str("transaction_id", rec.TransactionID).Msg("replaying stored payment initiation")
			return &InitiateResult{PaymentURL: rec.PaymentURL, TransactionID: rec.TransactionID}, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	tx, err := s.Provider.CreateTransaction(ctx, fedapay.CreateTransactionParams{
		Amount:      p.Amount,
		Description: p.Description,
		Currency:    s.Currency,
		Country:     s.Country,
		CallbackURL: s.CallbackURL,
		Customer: fedapay.Customer{
			Email: p.CustomerEmail,
			Name:  p.CustomerName,
			Phone: p.CustomerPhone,
		},
		RequestID:   p.RequestID,
		RequestType: string(rt),
	})
	if err != nil {
		lg.Error().Err(err).Msg("provider transaction creation failed")
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	token, err := s.Provider.CreateCheckoutToken(ctx, tx.ID)
	if err != nil {
		lg.Error().Err(err).Str("transaction_id", tx.ID).Msg("provider checkout token failed")
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	// The checkout exists on the provider side; a failed persist here must
	// not lose the redirect URL.
	if err := repo.SetRequestStatus(ctx, s.DB, rt, p.RequestID, domain.StatusPaymentPending); err != nil {
		lg.Error().Err(err).Msg("could not persist payment_pending status")
	}

	if p.IdempotencyKey != "" {
		if _, err := repo.CreatePaymentReceipt(ctx, s.DB, userID, p.RequestID, p.IdempotencyKey, tx.ID, token.URL, s.receiptTTL()); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			lg.Error().Err(err).Msg("could not store payment receipt")
		}
	}

	lg.Info().Str("transaction_id", tx.ID).Msg("payment initiated")
	return &InitiateResult{PaymentURL: token.URL, TransactionID: tx.ID}, nil
}

// loadRequest fetches the owner and lifecycle status of the request from its
// category table.
func (s *PaymentService) loadRequest(ctx context.Context, rt domain.RequestType, id string) (owner, status string, err error) {
	if rt == domain.RequestTypeService {
		r, err := repo.GetServiceRequest(ctx, s.DB, id)
		if err != nil {
			return "", "", err
		}
		return r.UserID, r.Status, nil
	}
	r, err := repo.GetCompanyRequest(ctx, s.DB, id)
	if err != nil {
		return "", "", err
	}
	return r.UserID, r.Status, nil
}

func (s *PaymentService) receiptTTL() time.Duration {
	if s.ReceiptTTL > 0 {
		return s.ReceiptTTL
	}
	return 24 * time.Hour
}
