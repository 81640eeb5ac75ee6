package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/templui/linkstash/internal/apperr"
)

const maxNameLength = 100

// NormalizeName validates a folder or tag name and returns it trimmed and in
// NFC form, so names that look the same compare equal in the store.
func NormalizeName(name string) (string, error) {
	normalized := norm.NFC.String(strings.TrimSpace(name))

	if normalized == "" {
		return "", apperr.Validation("name is required")
	}

	if utf8.RuneCountInString(normalized) > maxNameLength {
		return "", apperr.Validation("name is too long (max 100 characters)")
	}

	return normalized, nil
}
