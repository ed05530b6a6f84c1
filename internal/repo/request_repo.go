// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions over the two
// request tables (company_requests, service_requests).
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The request category selects the table;
// unknown categories normalize to "company" per the webhook contract.
//
// Error semantics:
//   - When a request is not found, functions return ErrNotFound (an alias of
//     gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/legalform/go-registry-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// RequestContact is the subset of request fields needed to address the
// payment confirmation notification.
type RequestContact struct {
	Email          string
	ContactName    string
	TrackingNumber string
}

// requestModel returns the GORM model value for a request category.
func requestModel(rt domain.RequestType) any {
	if rt.Normalize() == domain.RequestTypeService {
		return &domain.ServiceRequest{}
	}
	return &domain.CompanyRequest{}
}

// GetCompanyRequest fetches a company request by ID, or ErrNotFound.
func GetCompanyRequest(ctx context.Context, db *gorm.DB, id string) (*domain.CompanyRequest, error) {
	var r domain.CompanyRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetServiceRequest fetches a service request by ID, or ErrNotFound.
func GetServiceRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceRequest, error) {
	var r domain.ServiceRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// RequestStatus returns the current lifecycle status of a request, or
// ErrNotFound when the row does not exist.
func RequestStatus(ctx context.Context, db *gorm.DB, rt domain.RequestType, id string) (string, error) {
	var row struct{ Status string }
	err := db.WithContext(ctx).
		Model(requestModel(rt)).
		Select("status").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return "", err
	}
	return row.Status, nil
}

// UpdatePaymentOutcome writes the webhook-derived status onto a request,
// sets payment_status, and bumps updated_at. If no rows are affected (request
// missing), it returns ErrNotFound.
func UpdatePaymentOutcome(ctx context.Context, db *gorm.DB, rt domain.RequestType, id, status, paymentStatus string) error {
	res := db.WithContext(ctx).
		Model(requestModel(rt)).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"payment_status": paymentStatus,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetRequestStatus updates only the lifecycle status of a request. Used for
// the best-effort payment_pending persist during payment initiation.
// Returns ErrNotFound when no row matches.
func SetRequestStatus(ctx context.Context, db *gorm.DB, rt domain.RequestType, id, status string) error {
	res := db.WithContext(ctx).
		Model(requestModel(rt)).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetRequestContact fetches the notification contact fields for a request,
// or ErrNotFound.
func GetRequestContact(ctx context.Context, db *gorm.DB, rt domain.RequestType, id string) (*RequestContact, error) {
	var c RequestContact
	err := db.WithContext(ctx).
		Model(requestModel(rt)).
		Select("email", "contact_name", "tracking_number").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanyRequestsByIDs batch-fetches the public projection of company
// requests. Missing IDs are silently skipped; the result order is unspecified.
func ListCompanyRequestsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.TrackedRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.CompanyRequest
	err := db.WithContext(ctx).
		Select("id", "tracking_number", "status", "created_at", "company_name", "contact_name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.TrackedRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.TrackedRequest{
			ID:             r.ID,
			TrackingNumber: r.TrackingNumber,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
			Name:           r.CompanyName,
			ContactName:    r.ContactName,
			Type:           domain.RequestTypeCompany,
		})
	}
	return out, nil
}

// ListServiceRequestsByIDs batch-fetches the public projection of service
// requests. Missing IDs are silently skipped; the result order is unspecified.
func ListServiceRequestsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.TrackedRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.ServiceRequest
	err := db.WithContext(ctx).
		Select("id", "tracking_number", "status", "created_at", "service_type", "contact_name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.TrackedRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.TrackedRequest{
			ID:             r.ID,
			TrackingNumber: r.TrackingNumber,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
			Name:           r.ServiceType,
			ContactName:    r.ContactName,
			Type:           domain.RequestTypeService,
		})
	}
	return out, nil
}
