// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// PaymentReceipt model used to implement safe-retry semantics for the
// payment initiation endpoint.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
)

// ErrDuplicate indicates that a receipt already exists for the given
// (user_id, request_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetPaymentReceipt returns a non-expired receipt or ErrNotFound.
func GetPaymentReceipt(ctx context.Context, db *gorm.DB, userID, requestID, key string, now time.Time) (*domain.PaymentReceipt, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.PaymentReceipt
	err := db.WithContext(ctx).
		Where("user_id = ? AND request_id = ? AND key = ? AND expires_at > ?", userID, requestID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreatePaymentReceipt inserts a receipt and returns ErrDuplicate on unique
// violation.
func CreatePaymentReceipt(ctx context.Context, db *gorm.DB, userID, requestID, key, transactionID, paymentURL string, ttl time.Duration) (*domain.PaymentReceipt, error) {
	now := time.Now().UTC()
	rec := &domain.PaymentReceipt{
		ID:            uuid.NewString(),
		UserID:        userID,
		RequestID:     requestID,
		Key:           key,
		TransactionID: transactionID,
		PaymentURL:    paymentURL,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
