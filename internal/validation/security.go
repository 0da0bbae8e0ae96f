// Package validation provides input checks shared by the admin server, the
// CLI and the configuration loader: URLs, origins, site names and page slugs
// received from forms or flags are validated here before they reach the
// content back-end.
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxSiteNameLength bounds site names accepted from forms and flags.
const MaxSiteNameLength = 100

// ValidateOrigin validates a WebSocket origin for CSRF protection
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateSiteName checks a site name before it is sent to the back-end,
// where it becomes a path segment of every site and page URL.
func ValidateSiteName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("site name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxSiteNameLength {
		return fmt.Errorf("site name is longer than %d characters", MaxSiteNameLength)
	}
	if strings.ContainsAny(name, "/\\?#") {
		return fmt.Errorf("site name cannot contain '/', '\\', '?' or '#'")
	}
	if name != SanitizeInput(name) {
		return fmt.Errorf("site name contains control characters")
	}
	return nil
}

// ValidateSlug checks a page slug: lower-case ASCII letters, digits and
// single dashes, not starting or ending with a dash.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") || strings.Contains(slug, "--") {
		return fmt.Errorf("slug %q has a leading, trailing or repeated dash", slug)
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("slug %q contains invalid character %q", slug, r)
		}
	}
	return nil
}

// SanitizeInput removes null bytes and control characters other than common
// whitespace from user input
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}
