package normalization

import "strings"

// ParseInputString lowercases and trims user-supplied identifiers
// (usernames, login input) before validation and lookups.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
