package domain

import "testing"

func TestMapProviderStatus(t *testing.T) {
	cases := []struct {
		provider string
		want     string
	}{
		{"approved", StatusPaymentConfirmed},
		{"transferred", StatusPaymentConfirmed},
		{"declined", StatusPaymentFailed},
		{"canceled", StatusPaymentFailed},
		{"pending", StatusPending},
		{"refunded", StatusPending}, // unknown → pending
		{"", StatusPending},
	}
	for _, tc := range cases {
		if got := MapProviderStatus(tc.provider); got != tc.want {
			t.Fatalf("MapProviderStatus(%q) = %q, want %q", tc.provider, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusPaymentConfirmed) || !IsTerminal(StatusPaymentFailed) {
		t.Fatal("confirmed/failed must be terminal")
	}
	for _, s := range []string{StatusPending, StatusPaymentPending, StatusCompleted, "bogus"} {
		if IsTerminal(s) {
			t.Fatalf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestIsPaid(t *testing.T) {
	if !IsPaid(StatusPaymentConfirmed) {
		t.Fatal("payment_confirmed must count as paid")
	}
	if IsPaid(StatusPaymentFailed) || IsPaid(StatusPending) {
		t.Fatal("failed/pending must not count as paid")
	}
}
