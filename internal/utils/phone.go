// Package utils provides small, dependency-free helpers shared across
// services and handlers.
package utils

import "strings"

const (
	// PhoneMinLen and PhoneMaxLen bound accepted phone numbers. The bounds
	// apply to the trimmed input, matching the tracking-index entries which
	// store numbers as submitted (optionally with a leading "+").
	PhoneMinLen = 8
	PhoneMaxLen = 20
)

// NormalizePhone trims surrounding whitespace and validates the result as a
// lookup phone number: length within [PhoneMinLen, PhoneMaxLen], an optional
// leading '+', and at least one digit with only digits, spaces, '-', '.'
// and parentheses beyond that. Returns the trimmed value and whether it is
// acceptable.
func NormalizePhone(raw string) (string, bool) {
	p := strings.TrimSpace(raw)
	if len(p) < PhoneMinLen || len(p) > PhoneMaxLen {
		return "", false
	}

	digits := 0
	for i, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	if digits == 0 {
		return "", false
	}
	return p, true
}
