package domain

import (
	"regexp"
	"strings"
)

// CodePrefix is the fixed prefix of generated reservation codes.
const CodePrefix = "WED"

var codePattern = regexp.MustCompile(`^[A-Z]{3}-\d{4}$`)

// NormalizeCode trims and upper-cases a caller-provided reservation code.
// Codes are stored upper-case; lookups are case-insensitive from the caller's side.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidCode reports whether s (already normalized) has the invitation code shape, e.g. WED-1234.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}
