// Package services – TrackingLimiter
//
// This file implements the sliding-window rate limiter backing the public
// tracking endpoint. Quota is enforced per (caller IP, phone) pair: within a
// configured window a pair may attempt a bounded number of lookups; crossing
// the bound installs a temporary block. Attempt records are persisted so
// limits survive restarts, and a striped per-key mutex serializes the
// read-modify-write for concurrent same-pair requests in-process.
package services

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/repo"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	// Allowed reports whether the lookup may proceed.
	Allowed bool
	// BlockedUntil is set when Allowed is false because of an active block.
	BlockedUntil *time.Time
}

// TrackingLimiter enforces the per-(ip, phone) sliding window. The zero
// value is not usable; construct with NewTrackingLimiter.
type TrackingLimiter struct {
	// DB is the database handle used for attempt records.
	DB *gorm.DB

	// Window is the attempt-counting window.
	Window time.Duration
	// MaxAttempts is the number of lookups permitted per window.
	MaxAttempts int
	// BlockDuration is how long a pair stays blocked after exceeding the cap.
	BlockDuration time.Duration

	// Now is the clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time

	locks [lockStripes]sync.Mutex
}

// lockStripes is the fixed number of mutexes the limiter stripes keys over.
// Distinct pairs may share a stripe; that only adds contention, never skews
// a count. A fixed set keeps lock state constant no matter how many pairs an
// anonymous caller invents.
const lockStripes = 64

// NewTrackingLimiter constructs a TrackingLimiter with the given window
// parameters. Non-positive values fall back to the documented defaults
// (60m window, 10 attempts, 30m block).
func NewTrackingLimiter(db *gorm.DB, window time.Duration, maxAttempts int, block time.Duration) *TrackingLimiter {
	if window <= 0 {
		window = 60 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if block <= 0 {
		block = 30 * time.Minute
	}
	return &TrackingLimiter{
		DB:            db,
		Window:        window,
		MaxAttempts:   maxAttempts,
		BlockDuration: block,
		Now:           time.Now,
	}
}

// keyLock returns the stripe guarding one (ip, phone) pair.
func (l *TrackingLimiter) keyLock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &l.locks[h.Sum32()%lockStripes]
}

// CheckAndRecord loads (or creates) the attempt record for (ip, phone),
// applies the sliding-window algorithm, persists the result, and returns the
// decision.
//
// Order of evaluation:
//  1. no record → create with count=1, fresh window → allow
//  2. active block → deny with BlockedUntil (takes precedence over window
//     expiry: an expired window never lifts a block early)
//  3. window expired → reset record in place (count=1, clear block) → allow
//  4. increment; count > MaxAttempts → install block → deny
//  5. otherwise persist count and last attempt → allow
//
// The record round-trip runs inside a transaction under the pair's mutex, so
// concurrent bursts from one caller cannot exceed the effective limit
// in-process.
func (l *TrackingLimiter) CheckAndRecord(ctx context.Context, ip, phone string) (Decision, error) {
	now := l.now()
	key := ip + "|" + phone

	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	var decision Decision
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.GetTrackingRateLimit(ctx, tx, ip, phone)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		// First lookup for this pair.
		if rec == nil {
			rec = &domain.TrackingRateLimit{
				IPAddress:      ip,
				Phone:          phone,
				AttemptCount:   1,
				FirstAttemptAt: now,
				LastAttemptAt:  now,
			}
			decision = Decision{Allowed: true}
			return repo.SaveTrackingRateLimit(ctx, tx, rec)
		}

		// Active block wins over window-expiry reset.
		if rec.BlockedUntil != nil && now.Before(*rec.BlockedUntil) {
			until := *rec.BlockedUntil
			decision = Decision{Allowed: false, BlockedUntil: &until}
			return nil
		}

		// Window lapsed: reset in place.
		if now.Sub(rec.FirstAttemptAt) > l.Window {
			rec.AttemptCount = 1
			rec.FirstAttemptAt = now
			rec.LastAttemptAt = now
			rec.BlockedUntil = nil
			decision = Decision{Allowed: true}
			return repo.SaveTrackingRateLimit(ctx, tx, rec)
		}

		rec.AttemptCount++
		rec.LastAttemptAt = now

		if rec.AttemptCount > l.MaxAttempts {
			until := now.Add(l.BlockDuration)
			rec.BlockedUntil = &until
			decision = Decision{Allowed: false, BlockedUntil: &until}
			return repo.SaveTrackingRateLimit(ctx, tx, rec)
		}

		decision = Decision{Allowed: true}
		return repo.SaveTrackingRateLimit(ctx, tx, rec)
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

// Sweep removes attempt records whose window and block have both lapsed.
// Intended to run on a timer from the server entrypoint.
func (l *TrackingLimiter) Sweep(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredRateLimits(ctx, l.DB, l.now(), l.Window)
}

func (l *TrackingLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}
