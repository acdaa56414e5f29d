package utils

import "strings"

// phoneDigits is the length of an India-local mobile number.
const phoneDigits = 10

// NormalizePhone strips every non-digit rune from the input and truncates the
// result to 10 digits, so "98-765 43210x" becomes "9876543210". Drafts store
// phone numbers digits-only.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(phoneDigits)
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == phoneDigits {
			break
		}
	}
	return b.String()
}

// IsValidPhone reports whether p is exactly 10 digits.
func IsValidPhone(p string) bool {
	if len(p) != phoneDigits {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
