package validation

import (
	"net/url"
	"strings"

	"github.com/templui/linkstash/internal/apperr"
)

const maxURLLength = 2048

// ValidateURL checks a link destination and returns it trimmed.
// Only absolute http(s) URLs with a host are accepted.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return "", apperr.Validation("url is required")
	}

	if len(trimmed) > maxURLLength {
		return "", apperr.Validation("url is too long (max 2048 characters)")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", apperr.Validation("invalid url format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", apperr.Validation("url must start with http:// or https://")
	}
	if u.Host == "" {
		return "", apperr.Validation("url must include a host")
	}

	return trimmed, nil
}
