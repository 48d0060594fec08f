package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for guest and accompanist names.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
