package terms

import (
	"regexp"
	"strings"
)

const (
	minTermLength = 3
	maxTermLength = 120
)

var termWhitespaceRe = regexp.MustCompile(`\s+`)

// Normalize folds case and whitespace so that "DHL EXPRESS" and
// "dhl  express" collapse to the same token.
func Normalize(raw string) string {
	return strings.TrimSpace(termWhitespaceRe.ReplaceAllString(strings.ToLower(raw), " "))
}

var (
	// Street-style lines: leading house number plus a street suffix.
	streetRe = regexp.MustCompile(`(?i)\b\d+\s+\w+.*\b(street|str|avenue|ave|road|rd|blvd|boulevard|lane|ln|drive|dr|suite|ste|floor|fl)\b`)
	// Trailing postal codes (5-digit or UK-style).
	postalRe = regexp.MustCompile(`(?i)\b(\d{5}(-\d{4})?|[a-z]\d[a-z]\s?\d[a-z]\d)\b\s*$`)
)

// Acceptable filters normalized candidates: length bounds and anything
// structurally resembling a postal address.
func Acceptable(normalized string) bool {
	if len(normalized) < minTermLength || len(normalized) > maxTermLength {
		return false
	}
	if streetRe.MatchString(normalized) || postalRe.MatchString(normalized) {
		return false
	}
	return true
}

func trimDisplay(raw string) string {
	display := strings.TrimSpace(raw)
	if len(display) > maxTermLength {
		display = display[:maxTermLength]
	}
	return display
}
