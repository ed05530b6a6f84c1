// Package services – webhook signature verification.
//
// The provider signs each webhook delivery with HMAC-SHA256 over the raw
// request body using a shared secret, hex-encoded into the
// x-fedapay-signature header. Verification MUST run on the raw, unparsed
// body bytes: parsing and re-serializing JSON produces a different byte
// sequence and breaks the MAC.
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature reports whether header is a valid HMAC-SHA256 hex digest of
// rawBody under secret. The comparison is constant-time and case-insensitive
// (providers differ on hex casing). A missing header is unauthenticated, not
// an error.
func VerifySignature(rawBody []byte, header, secret string) bool {
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(header)))
	if err != nil {
		// Malformed hex can never authenticate.
		return false
	}
	return hmac.Equal(expected, provided)
}
