// Package domain defines the persistence models for registration requests,
// the public tracking index, and payment bookkeeping. These types are mapped
// with GORM and form the core data layer of the portal backend.
package domain

import (
	"time"
)

// RequestType discriminates the two request categories. It selects the table
// a webhook or tracking lookup resolves against.
type RequestType string

const (
	// RequestTypeCompany is a company-formation request ("company_requests").
	RequestTypeCompany RequestType = "company"
	// RequestTypeService is an additional-service request ("service_requests").
	RequestTypeService RequestType = "service"
)

// Normalize maps unknown or empty values to RequestTypeCompany, matching the
// webhook contract where an absent request_type defaults to "company".
func (t RequestType) Normalize() RequestType {
	if t == RequestTypeService {
		return RequestTypeService
	}
	return RequestTypeCompany
}

// CompanyRequest represents a client's company-formation application.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owning client; indexed for ownership checks.
//   - TrackingNumber: human-facing identifier, distinct from ID.
//   - Status: lifecycle status (see status.go constants).
//   - PaymentStatus: optional payment marker ("paid" once a webhook lands).
//   - CompanyName / ContactName / Email / Phone: applicant contact fields.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type CompanyRequest struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_company_owner"`
	TrackingNumber string    `json:"tracking_number" gorm:"type:varchar(32);not null;index"`
	Status         string    `json:"status"          gorm:"type:varchar(32);not null;default:'pending'"`
	PaymentStatus  *string   `json:"payment_status,omitempty" gorm:"type:varchar(32)"`
	CompanyName    string    `json:"company_name"    gorm:"type:varchar(255);not null"`
	ContactName    string    `json:"contact_name"    gorm:"type:varchar(255);not null"`
	Email          string    `json:"email"           gorm:"type:varchar(255);not null"`
	Phone          string    `json:"phone"           gorm:"type:varchar(32);not null;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for CompanyRequest.
func (CompanyRequest) TableName() string { return "company_requests" }

// ServiceRequest represents a client's additional-service application. It has
// the same lifecycle shape as CompanyRequest; the category-specific name
// field is ServiceType instead of CompanyName.
type ServiceRequest struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_service_owner"`
	TrackingNumber string    `json:"tracking_number" gorm:"type:varchar(32);not null;index"`
	Status         string    `json:"status"          gorm:"type:varchar(32);not null;default:'pending'"`
	PaymentStatus  *string   `json:"payment_status,omitempty" gorm:"type:varchar(32)"`
	ServiceType    string    `json:"service_type"    gorm:"type:varchar(255);not null"`
	ContactName    string    `json:"contact_name"    gorm:"type:varchar(255);not null"`
	Email          string    `json:"email"           gorm:"type:varchar(255);not null"`
	Phone          string    `json:"phone"           gorm:"type:varchar(32);not null;index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for ServiceRequest.
func (ServiceRequest) TableName() string { return "service_requests" }

// TrackingEntry maps a phone number to a request so anonymous callers can
// look up their dossiers. Rows are written by the request-intake flow and
// consumed read-only by the public tracking resolver.
type TrackingEntry struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Phone       string    `json:"phone"        gorm:"type:varchar(32);not null;index:idx_tracking_phone"`
	RequestID   string    `json:"request_id"   gorm:"type:char(36);not null"`
	RequestType string    `json:"request_type" gorm:"type:varchar(16);not null;check:request_type IN ('company','service')"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for TrackingEntry.
func (TrackingEntry) TableName() string { return "public_tracking" }

// TrackingRateLimit records lookup attempts for one (caller IP, phone) pair.
// At most one row exists per pair; the window resets in place rather than
// spawning new rows, and BlockedUntil marks a temporary block.
type TrackingRateLimit struct {
	ID             string     `gorm:"type:char(36);primaryKey"`
	IPAddress      string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_tracking_rl_ip_phone,priority:1"`
	Phone          string     `gorm:"type:varchar(32);not null;uniqueIndex:ux_tracking_rl_ip_phone,priority:2"`
	AttemptCount   int        `gorm:"not null;default:1"`
	FirstAttemptAt time.Time  `gorm:"not null"`
	LastAttemptAt  time.Time  `gorm:"not null"`
	BlockedUntil   *time.Time `gorm:"index"`
}

// TableName returns the database table name for TrackingRateLimit.
func (TrackingRateLimit) TableName() string { return "public_tracking_rate_limit" }

// PaymentReceipt stores the outcome of a completed payment initiation, keyed
// by (user_id, request_id, idempotency key). Replaying the same key within
// its validity window returns the original checkout URL instead of creating
// a second provider transaction.
type PaymentReceipt struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	UserID        string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_receipt_user_req_key,priority:1"`
	RequestID     string    `gorm:"type:char(36);not null;uniqueIndex:ux_receipt_user_req_key,priority:2"`
	Key           string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_receipt_user_req_key,priority:3"`
	TransactionID string    `gorm:"type:varchar(64);not null"`
	PaymentURL    string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	ExpiresAt     time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for PaymentReceipt.
func (PaymentReceipt) TableName() string { return "payment_receipts" }

// TrackedRequest is the restricted projection returned by the public tracking
// endpoint. It deliberately omits owner identity, email, and phone.
type TrackedRequest struct {
	ID             string    `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	// Name is the category-specific label: company name for company
	// requests, service type for service requests.
	Name        string      `json:"name"`
	ContactName string      `json:"contact_name"`
	Type        RequestType `json:"type"`
}
