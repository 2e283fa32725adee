package analyzer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DeriveSlug turns a website URL into a human-readable slug based on its
// registrable domain: "https://www.example.com/foo" becomes "example-com".
// It returns an empty string when no usable host can be extracted.
func DeriveSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		// Bare domains without a scheme parse into the path component.
		host = strings.ToLower(strings.SplitN(strings.TrimPrefix(rawURL, "//"), "/", 2)[0])
	}
	host = strings.TrimPrefix(host, "www.")

	var b strings.Builder
	lastDash := true // suppress leading dashes
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueSlug finds the first free slug for base by appending -1, -2, ... on
// collision. An empty base falls back to a random token so slug derivation
// failures never block website creation.
func UniqueSlug(base string, taken func(slug string) bool) string {
	if base == "" {
		base = "site-" + uuid.NewString()[:8]
	}
	slug := base
	for counter := 1; taken(slug); counter++ {
		slug = base + "-" + strconv.Itoa(counter)
	}
	return slug
}
