package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/legalform/go-registry-backend/internal/domain"
	"github.com/legalform/go-registry-backend/internal/services"
)

func TestPaymentWebhook_Success(t *testing.T) {
	wh := &fakeWebhookService{status: domain.StatusPaymentConfirmed}
	h := New(&fakePaymentService{}, wh, &fakeTrackingService{}, &fakeNotifier{})
	r := newTestRouter(h, "")

	body := `{"entity":{"id":42,"status":"approved","custom_metadata":{"request_id":"req-1"}}}`
	w := postJSON(r, "/payment-webhook", body, map[string]string{"x-fedapay-signature": "deadbeef"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Status != domain.StatusPaymentConfirmed {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// The exact raw bytes and the header reach the service untouched.
	if string(wh.lastBody) != body {
		t.Fatalf("raw body altered: %q", wh.lastBody)
	}
	if wh.lastHeader != "deadbeef" {
		t.Fatalf("header = %q", wh.lastHeader)
	}
}

func TestPaymentWebhook_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"secret missing", services.ErrSecretNotConfigured, http.StatusInternalServerError, ErrCodeConfigurationError},
		{"bad signature", services.ErrInvalidSignature, http.StatusUnauthorized, ErrCodeInvalidSignature},
		{"no request id", services.ErrMissingRequestID, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown request", services.ErrRequestNotFound, http.StatusBadRequest, ErrCodeBadRequest},
		{"storage failure", errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&fakePaymentService{}, &fakeWebhookService{err: tc.err}, &fakeTrackingService{}, &fakeNotifier{})
			r := newTestRouter(h, "")

			w := postJSON(r, "/payment-webhook", `{}`, map[string]string{"x-fedapay-signature": "deadbeef"})
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", resp.Code, tc.wantCode)
			}
		})
	}
}

func TestPaymentWebhook_EmptyBodyStillReachesService(t *testing.T) {
	wh := &fakeWebhookService{err: services.ErrMissingRequestID}
	h := New(&fakePaymentService{}, wh, &fakeTrackingService{}, &fakeNotifier{})
	r := newTestRouter(h, "")

	w := postJSON(r, "/payment-webhook", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(wh.lastBody) != 0 {
		t.Fatalf("body = %q, want empty", wh.lastBody)
	}
}
