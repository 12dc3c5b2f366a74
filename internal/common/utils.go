package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	urlPattern          = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:[0-9]+)?(/[^\s]*)?$`)
)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown link syntax.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Example: "[click here](https://example.com)" -> "https://example.com"
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	// Wikipedia titles can end in ")" so only strip punctuation that never ends a page path.
	trailingChars := []string{",", ";", "\"", "'", ">"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateURL sanitizes rawURL and rejects anything that is not an absolute http(s) URL.
func ValidateURL(rawURL string) (string, error) {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" {
		return "", fmt.Errorf("empty URL")
	}

	// Reject URLs with literal spaces (must be pre-encoded as %20)
	if strings.Contains(cleaned, " ") {
		return "", fmt.Errorf("URL contains spaces: %q", rawURL)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme in %q", rawURL)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}

	// 127.0.0.1 style hosts do not match the name pattern but are valid targets.
	if !urlPattern.MatchString(cleaned) && parsed.Hostname() != "localhost" && !isIPv4(parsed.Hostname()) {
		return "", fmt.Errorf("malformed URL %q", rawURL)
	}

	return cleaned, nil
}

var ipv4Pattern = regexp.MustCompile(`^[0-9]{1,3}(\.[0-9]{1,3}){3}$`)

func isIPv4(host string) bool {
	return ipv4Pattern.MatchString(host)
}
