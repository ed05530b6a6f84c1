// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file reads the public tracking index that maps phone
// numbers to request rows. The index is written by the request-intake flow;
// this layer never mutates it.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
)

// ListTrackingEntries returns every tracking-index row for a phone number.
// An empty slice is a valid result (no dossiers for that phone).
func ListTrackingEntries(ctx context.Context, db *gorm.DB, phone string) ([]domain.TrackingEntry, error) {
	var out []domain.TrackingEntry
	err := db.WithContext(ctx).
		Where("phone = ?", phone).
		Find(&out).Error
	return out, err
}
