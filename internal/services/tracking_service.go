// Package services – TrackingService
//
// This file implements the anonymous public tracking lookup: given a phone
// number, resolve every associated request across the two categories with a
// restricted field projection. Phone validation runs before the rate limiter
// so malformed input never consumes quota.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/repo"
	"github.com/legalform/go-registry-backend/internal/utils"
)

// RateLimitedError carries the block expiry alongside ErrRateLimited so
// handlers can surface blockedUntil to the caller.
type RateLimitedError struct {
	BlockedUntil *time.Time
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string { return ErrRateLimited.Error() }

// Unwrap makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// TrackingService resolves public tracking lookups.
type TrackingService struct {
	// DB is the database handle for index and request reads.
	DB *gorm.DB
	// Limiter enforces the per-(ip, phone) quota.
	Limiter *TrackingLimiter
}

// Lookup returns the restricted projection of every request associated with
// phone. callerIP keys the rate limit together with the phone.
//
// Errors:
//   - ErrInvalidPhone before any quota consumption.
//   - *RateLimitedError (wrapping ErrRateLimited) when the pair is over
//     quota; BlockedUntil is populated when a block is active.
//
// An empty slice is a valid, non-error result. Order is unspecified:
// company matches precede service matches only as an artifact of the
// two-table fan-out.
func (s *TrackingService) Lookup(ctx context.Context, phone, callerIP string) ([]domain.TrackedRequest, error) {
	normalized, ok := utils.NormalizePhone(phone)
	if !ok {
		return nil, ErrInvalidPhone
	}

	decision, err := s.Limiter.CheckAndRecord(ctx, callerIP, normalized)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !decision.Allowed {
		return nil, &RateLimitedError{BlockedUntil: decision.BlockedUntil}
	}

	entries, err := repo.ListTrackingEntries(ctx, s.DB, normalized)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []domain.TrackedRequest{}, nil
	}

	var companyIDs, serviceIDs []string
	for _, e := range entries {
		if domain.RequestType(e.RequestType) == domain.RequestTypeService {
			serviceIDs = append(serviceIDs, e.RequestID)
		} else {
			companyIDs = append(companyIDs, e.RequestID)
		}
	}

	out := make([]domain.TrackedRequest, 0, len(entries))
	if companies, err := repo.ListCompanyRequestsByIDs(ctx, s.DB, companyIDs); err != nil {
		return nil, err
	} else {
		out = append(out, companies...)
	}
	if services, err := repo.ListServiceRequestsByIDs(ctx, s.DB, serviceIDs); err != nil {
		return nil, err
	} else {
		out = append(out, services...)
	}

	return out, nil
}
