// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file persists the sliding-window attempt records used
// by the public tracking rate limiter. One row exists per (ip, phone) pair;
// window resets rewrite the row in place.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/legalform/go-registry-backend/internal/domain"
)

// GetTrackingRateLimit loads the attempt record for (ip, phone), or
// ErrNotFound when the pair has never been seen.
func GetTrackingRateLimit(ctx context.Context, db *gorm.DB, ip, phone string) (*domain.TrackingRateLimit, error) {
	var rec domain.TrackingRateLimit
	err := db.WithContext(ctx).
		Where("ip_address = ? AND phone = ?", ip, phone).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveTrackingRateLimit upserts the attempt record keyed by (ip, phone).
// A nil ID is filled with a fresh UUID on first insert; on conflict the
// counter, window and block columns are overwritten.
func SaveTrackingRateLimit(ctx context.Context, db *gorm.DB, rec *domain.TrackingRateLimit) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ip_address"}, {Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"attempt_count", "first_attempt_at", "last_attempt_at", "blocked_until",
			}),
		}).
		Create(rec).Error
}

// PurgeExpiredRateLimits deletes records whose window has lapsed and whose
// block (if any) has expired. It exists to bound table growth in long-running
// deployments; correctness never depends on it because the limiter resets
// stale rows in place. Returns the number of rows removed.
func PurgeExpiredRateLimits(ctx context.Context, db *gorm.DB, now time.Time, window time.Duration) (int64, error) {
	cutoff := now.Add(-window)
	res := db.WithContext(ctx).
		Where("first_attempt_at < ? AND (blocked_until IS NULL OR blocked_until <= ?)", cutoff, now).
		Delete(&domain.TrackingRateLimit{})
	return res.RowsAffected, res.Error
}
