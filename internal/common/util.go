package common

import "strings"

// EmailLocalPart returns the part of an email address before the '@'.
// Used to derive a default username when no pending metadata is available.
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// NormalizeOTP strips every non-digit character from s and caps the result
// at 6 characters, mirroring what the verification input field does as the
// user types.
func NormalizeOTP(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 6 {
			break
		}
	}
	return b.String()
}

// IsValidOTP reports whether s is exactly 6 numeric digits, the only form
// ever submitted to the backend.
func IsValidOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WipeByteArray zeroes the buffer in place. Used for passwords read from
// the terminal once they are no longer needed.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
