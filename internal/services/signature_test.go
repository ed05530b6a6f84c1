package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"entity":{"id":1,"status":"approved"}}`)
	if !VerifySignature(body, sign(body, "s3cret"), "s3cret") {
		t.Fatal("valid signature rejected")
	}
}

func TestVerifySignature_CaseInsensitiveHex(t *testing.T) {
	body := []byte(`{"ok":true}`)
	upper := strings.ToUpper(sign(body, "s3cret"))
	if !VerifySignature(body, upper, "s3cret") {
		t.Fatal("uppercase hex digest rejected")
	}
}

func TestVerifySignature_Rejections(t *testing.T) {
	body := []byte(`{"ok":true}`)
	good := sign(body, "s3cret")

	cases := []struct {
		name   string
		body   []byte
		header string
		secret string
	}{
		{"empty header", body, "", "s3cret"},
		{"wrong secret", body, sign(body, "other"), "s3cret"},
		{"tampered body", []byte(`{"ok":false}`), good, "s3cret"},
		{"malformed hex", body, "zz" + good[2:], "s3cret"},
		{"truncated digest", body, good[:32], "s3cret"},
		{"empty body signed differently", nil, good, "s3cret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifySignature(tc.body, tc.header, tc.secret) {
				t.Fatal("signature accepted, want rejection")
			}
		})
	}
}

func TestVerifySignature_EmptyBody(t *testing.T) {
	// The MAC of an empty body is still a real MAC.
	if !VerifySignature(nil, sign(nil, "s3cret"), "s3cret") {
		t.Fatal("signed empty body rejected")
	}
}
