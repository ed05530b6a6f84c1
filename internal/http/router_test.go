package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/legalform/go-registry-backend/internal/config"
	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/fedapay"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	testJWTSecret     = "jwt-s3cret"
	testWebhookSecret = "wh-s3cret"
)

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
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
	err = db.AutoMigrate(
		&domain.CompanyRequest{}, &domain.ServiceRequest{},
		&domain.TrackingEntry{}, &domain.TrackingRateLimit{}, &domain.PaymentReceipt{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubProvider satisfies fedapay.Provider without network access.
type stubProvider struct{}

func (stubProvider) CreateTransaction(ctx context.Context, p fedapay.CreateTransactionParams) (*fedapay.Transaction, error) {
	return &fedapay.Transaction{ID: "tx-1", Status: "pending"}, nil
}

func (stubProvider) CreateCheckoutToken(ctx context.Context, transactionID string) (*fedapay.CheckoutToken, error) {
	return &fedapay.CheckoutToken{Token: "tok-1", URL: "https://checkout.example/" + transactionID}, nil
}

func testConfig() config.Config {
	return config.Config{
		Port:        "8080",
		GinMode:     gin.TestMode,
		LogLevel:    "error",
		APIBasePath: "/",

		AuthJWTSecret: testJWTSecret,

		FedaPay: config.FedaPayConfig{
			APIBase:       "https://api.fedapay.test/v1",
			SecretKey:     "sk_test",
			WebhookSecret: testWebhookSecret,
			Currency:      "XOF",
			Country:       "CI",
			CallbackURL:   "https://api.example/payment-webhook",
		},
		Tracking: config.TrackingConfig{
			Window:        time.Hour,
			MaxAttempts:   10,
			BlockDuration: 30 * time.Minute,
			SweepInterval: time.Hour,
		},

		// Generous edge limits so only the domain limiter bites in tests.
		RateRPS:   1000,
		RateBurst: 1000,

		IdempotencyTTL: 24 * time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "go-registry-backend-test"},
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newRouterDB(t)
	r := gin.New()
	RegisterRoutes(r, db, stubProvider{}, testConfig())
	return r, db
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	r, _ := newTestServer(t)

	if w := do(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("/health status = %d", w.Code)
	}

	if w := do(r, http.MethodGet, "/no-such-route", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", w.Code)
	}

	if w := do(r, http.MethodGet, "/payment-webhook", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong-method status = %d", w.Code)
	}
}

func TestRouter_RequestIDAndCORS(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID missing")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q, want *", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	if w := do(r, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
}

func TestRouter_CreatePaymentRequiresAuth(t *testing.T) {
	r, _ := newTestServer(t)

	body := `{"amount":25000,"description":"d","requestId":"r","customerEmail":"a@b.c","customerName":"n","customerPhone":"p"}`
	if w := do(r, http.MethodPost, "/create-payment", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", w.Code)
	}
}

func TestRouter_PaymentThenWebhookThenTracking(t *testing.T) {
	r, db := newTestServer(t)

	// Seed an owned request plus its tracking index entry.
	phone := "+2250101010101"
	req := &domain.CompanyRequest{
		ID:             uuid.NewString(),
		UserID:         "user-42",
		TrackingNumber: "TRK-0001",
		Status:         domain.StatusPending,
		CompanyName:    "Acme SARL",
		ContactName:    "Aya Kouassi",
		Email:          "aya@example.com",
		Phone:          phone,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	entry := &domain.TrackingEntry{
		ID: uuid.NewString(), Phone: phone, RequestID: req.ID, RequestType: "company",
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed index: %v", err)
	}

	// 1) Initiate the payment.
	payBody := fmt.Sprintf(`{
		"amount": 25000,
		"description": "Frais de constitution",
		"requestId": %q,
		"requestType": "company",
		"customerEmail": "aya@example.com",
		"customerName": "Aya Kouassi",
		"customerPhone": %q
	}`, req.ID, phone)
	w := do(r, http.MethodPost, "/create-payment", payBody, map[string]string{
		"Authorization": bearerFor(t, "user-42"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create-payment status = %d, body = %s", w.Code, w.Body.String())
	}
	var payResp struct {
		Success    bool   `json:"success"`
		PaymentURL string `json:"paymentUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payResp.Success || payResp.PaymentURL == "" {
		t.Fatalf("unexpected payment response: %s", w.Body.String())
	}

	// 2) Deliver the signed provider webhook.
	whBody := fmt.Sprintf(
		`{"entity":{"id":1,"status":"approved","custom_metadata":{"request_id":%q,"request_type":"company"}}}`,
		req.ID)
	w = do(r, http.MethodPost, "/payment-webhook", whBody, map[string]string{
		"x-fedapay-signature": signBody([]byte(whBody)),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, body = %s", w.Code, w.Body.String())
	}

	// 3) The public lookup reflects the confirmed payment.
	w = do(r, http.MethodPost, "/secure-public-tracking", fmt.Sprintf(`{"phone":%q}`, phone), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tracking status = %d, body = %s", w.Code, w.Body.String())
	}
	var trackResp struct {
		Requests []domain.TrackedRequest `json:"requests"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &trackResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(trackResp.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(trackResp.Requests))
	}
	if got := trackResp.Requests[0]; got.Status != domain.StatusPaymentConfirmed || got.TrackingNumber != "TRK-0001" {
		t.Fatalf("unexpected projection: %+v", got)
	}
}

func TestRouter_WebhookRejectsBadSignature(t *testing.T) {
	r, _ := newTestServer(t)

	body := `{"entity":{"id":1,"status":"approved","custom_metadata":{"request_id":"x"}}}`
	w := do(r, http.MethodPost, "/payment-webhook", body, map[string]string{
		"x-fedapay-signature": "0000",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRouter_TrackingRateLimitEndToEnd(t *testing.T) {
	r, _ := newTestServer(t)
	body := `{"phone":"+2250303030303"}`

	for i := 0; i < 10; i++ {
		if w := do(r, http.MethodPost, "/secure-public-tracking", body, nil); w.Code != http.StatusOK {
			t.Fatalf("lookup %d: status = %d", i+1, w.Code)
		}
	}

	w := do(r, http.MethodPost, "/secure-public-tracking", body, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	var resp struct {
		Code         string     `json:"code"`
		BlockedUntil *time.Time `json:"blockedUntil"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "too_many_requests" || resp.BlockedUntil == nil {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
}

func TestRouter_SendNotification(t *testing.T) {
	r, _ := newTestServer(t)

	body := `{"to":"aya@example.com","subject":"Confirmation de paiement - LegalForm","html":"<p>Merci</p>"}`
	if w := do(r, http.MethodPost, "/send-payment-notification", body, nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
