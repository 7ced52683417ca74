package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in logs.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error text in logs.
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength caps any other user-supplied string.
	MaxGeneralStringLength = 2000
)

// SanitizePath prepares a request path for logging.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString drops invalid UTF-8 and control characters, line breaks
// included, and truncates the result to maxLength bytes.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// SanitizeError is SanitizeString over err's message.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}
