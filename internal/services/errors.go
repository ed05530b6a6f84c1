// Package services defines the business logic for payment initiation, the
// webhook-driven payment status transition, and the rate-limited public
// tracking lookup. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Payment initiation errors.
var (
	// ErrRequestNotFound indicates that the referenced request row does not
	// exist in the table selected by its category.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotOwner is returned when an authenticated user attempts to create
	// a payment for a request they do not own.
	ErrNotOwner = errors.New("request belongs to another user")

	// ErrAlreadyPaid is returned when a payment is initiated for a request
	// whose payment is already settled. No provider call is made.
	ErrAlreadyPaid = errors.New("request is already paid")

	// ErrProviderFailure wraps any payment-provider API failure during
	// transaction creation or checkout-token generation.
	ErrProviderFailure = errors.New("payment provider call failed")
)

// Webhook errors.
var (
	// ErrSecretNotConfigured is returned when the webhook shared secret is
	// absent from configuration. Distinct from an authentication failure.
	ErrSecretNotConfigured = errors.New("webhook secret not configured")

	// ErrInvalidSignature is returned when the webhook signature header is
	// missing or does not match the payload.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMissingRequestID is returned when a verified webhook payload lacks
	// the custom_metadata.request_id correlation field.
	ErrMissingRequestID = errors.New("missing request_id in webhook payload")
)

// Public tracking errors.
var (
	// ErrInvalidPhone is returned when a lookup phone number fails format
	// validation. Detected before any rate-limit consumption.
	ErrInvalidPhone = errors.New("invalid phone number format")

	// ErrRateLimited is returned when the (ip, phone) pair is over quota.
	// The limiter decision carries the block expiry.
	ErrRateLimited = errors.New("too many tracking attempts")
)
