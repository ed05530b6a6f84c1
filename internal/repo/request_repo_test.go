package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/legalform/go-registry-backend/internal/domain"
)

func newRequestRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:request_repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.CompanyRequest{}, &domain.ServiceRequest{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, userID, status string) *domain.CompanyRequest {
	t.Helper()
	r := &domain.CompanyRequest{
		ID:             uuid.NewString(),
		UserID:         userID,
		TrackingNumber: "TRK-" + uuid.NewString()[:8],
		Status:         status,
		CompanyName:    "Acme SARL",
		ContactName:    "Aya Kouassi",
		Email:          "aya@example.com",
		Phone:          "+2250101010101",
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed company request: %v", err)
	}
	return r
}

func seedService(t *testing.T, db *gorm.DB, userID, status string) *domain.ServiceRequest {
	t.Helper()
	r := &domain.ServiceRequest{
		ID:             uuid.NewString(),
		UserID:         userID,
		TrackingNumber: "TRK-" + uuid.NewString()[:8],
		Status:         status,
		ServiceType:    "Statuts modification",
		ContactName:    "Koffi N'Guessan",
		Email:          "koffi@example.com",
		Phone:          "+2250202020202",
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed service request: %v", err)
	}
	return r
}

func TestGetCompanyRequest(t *testing.T) {
	db := newRequestRepoDB(t)
	seeded := seedCompany(t, db, "u1", domain.StatusPending)

	got, err := GetCompanyRequest(context.Background(), db, seeded.ID)
	if err != nil {
		t.Fatalf("GetCompanyRequest: %v", err)
	}
	if got.ID != seeded.ID || got.CompanyName != "Acme SARL" {
		t.Fatalf("unexpected row: %+v", got)
	}

	if _, err := GetCompanyRequest(context.Background(), db, uuid.NewString()); err != ErrNotFound {
		t.Fatalf("missing row: err = %v, want ErrNotFound", err)
	}
}

func TestGetServiceRequest(t *testing.T) {
	db := newRequestRepoDB(t)
	c := seedCompany(t, db, "owner-a", domain.StatusPending)
	s := seedService(t, db, "owner-b", domain.StatusPending)

	got, err := GetServiceRequest(context.Background(), db, s.ID)
	if err != nil {
		t.Fatalf("GetServiceRequest: %v", err)
	}
	if got.UserID != "owner-b" {
		t.Fatalf("user_id = %q, want owner-b", got.UserID)
	}

	// Category mismatch: a company ID looked up in service_requests must miss.
	if _, err := GetServiceRequest(context.Background(), db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-category lookup: err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePaymentOutcome(t *testing.T) {
	db := newRequestRepoDB(t)
	c := seedCompany(t, db, "u1", domain.StatusPaymentPending)

	before := time.Now().UTC().Add(-time.Second)
	err := UpdatePaymentOutcome(context.Background(), db, domain.RequestTypeCompany, c.ID,
		domain.StatusPaymentConfirmed, domain.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("UpdatePaymentOutcome: %v", err)
	}

	got, err := GetCompanyRequest(context.Background(), db, c.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusPaymentConfirmed {
		t.Fatalf("status = %q", got.Status)
	}
	if got.PaymentStatus == nil || *got.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment_status = %v, want paid", got.PaymentStatus)
	}
	if got.UpdatedAt.Before(before) {
		t.Fatalf("updated_at not bumped: %v", got.UpdatedAt)
	}

	if err := UpdatePaymentOutcome(context.Background(), db, domain.RequestTypeCompany, uuid.NewString(),
		domain.StatusPaymentFailed, domain.PaymentStatusPaid); err != ErrNotFound {
		t.Fatalf("missing row: err = %v, want ErrNotFound", err)
	}
}

func TestSetRequestStatus(t *testing.T) {
	db := newRequestRepoDB(t)
	s := seedService(t, db, "u1", domain.StatusPending)

	if err := SetRequestStatus(context.Background(), db, domain.RequestTypeService, s.ID, domain.StatusPaymentPending); err != nil {
		t.Fatalf("SetRequestStatus: %v", err)
	}
	got, err := GetServiceRequest(context.Background(), db, s.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusPaymentPending {
		t.Fatalf("status = %q", got.Status)
	}
	if got.PaymentStatus != nil {
		t.Fatalf("payment_status changed by SetRequestStatus: %v", *got.PaymentStatus)
	}

	if err := SetRequestStatus(context.Background(), db, domain.RequestTypeService, uuid.NewString(), domain.StatusPending); err != ErrNotFound {
		t.Fatalf("missing row: err = %v, want ErrNotFound", err)
	}
}

func TestGetRequestContact(t *testing.T) {
	db := newRequestRepoDB(t)
	c := seedCompany(t, db, "u1", domain.StatusPending)

	contact, err := GetRequestContact(context.Background(), db, domain.RequestTypeCompany, c.ID)
	if err != nil {
		t.Fatalf("GetRequestContact: %v", err)
	}
	if contact.Email != "aya@example.com" || contact.ContactName != "Aya Kouassi" || contact.TrackingNumber != c.TrackingNumber {
		t.Fatalf("unexpected contact: %+v", contact)
	}

	if _, err := GetRequestContact(context.Background(), db, domain.RequestTypeCompany, uuid.NewString()); err != ErrNotFound {
		t.Fatalf("missing row: err = %v, want ErrNotFound", err)
	}
}

func TestListRequestsByIDs(t *testing.T) {
	db := newRequestRepoDB(t)
	c1 := seedCompany(t, db, "u1", domain.StatusPending)
	c2 := seedCompany(t, db, "u2", domain.StatusPaymentConfirmed)
	s1 := seedService(t, db, "u3", domain.StatusPending)

	got, err := ListCompanyRequestsByIDs(context.Background(), db, []string{c1.ID, c2.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("ListCompanyRequestsByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (missing IDs skipped)", len(got))
	}
	for _, r := range got {
		if r.Type != domain.RequestTypeCompany {
			t.Fatalf("type = %q, want company", r.Type)
		}
		if r.Name != "Acme SARL" {
			t.Fatalf("name = %q", r.Name)
		}
	}

	svc, err := ListServiceRequestsByIDs(context.Background(), db, []string{s1.ID})
	if err != nil {
		t.Fatalf("ListServiceRequestsByIDs: %v", err)
	}
	if len(svc) != 1 || svc[0].Type != domain.RequestTypeService || svc[0].Name != "Statuts modification" {
		t.Fatalf("unexpected service projection: %+v", svc)
	}

	// Empty input short-circuits without touching the DB.
	if out, err := ListCompanyRequestsByIDs(context.Background(), db, nil); err != nil || out != nil {
		t.Fatalf("empty input: out=%v err=%v", out, err)
	}
}
