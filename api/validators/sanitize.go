package validators

import "strings"

// SanitizeString trims surrounding whitespace and clamps the result to maxLen
// runes. Free-text fields pass through here before reaching the services.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
