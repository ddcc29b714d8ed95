package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims whitespace, drops control characters, and caps the
// result at maxLen bytes. Used on free-text profile fields before they are
// persisted.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)
	if maxLen > 0 && len(cleaned) > maxLen {
		return cleaned[:maxLen]
	}
	return cleaned
}
