package app

import (
	"net/url"
	"strings"
)

// originAllowed builds the CORS origin check from the configured pattern
// list. Patterns compare against the origin's "host[:port]" and come in
// three forms: an exact host, "*.domain" for any subdomain, and "host:*"
// for any port.
func originAllowed(patterns []string) func(origin string) bool {
	return func(origin string) bool {
		host := origin
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			host = u.Host
		}
		for _, p := range patterns {
			switch {
			case p == host:
				return true
			case strings.HasPrefix(p, "*.") && strings.HasSuffix(host, p[1:]):
				return true
			case strings.HasSuffix(p, ":*") && strings.HasPrefix(host, p[:len(p)-1]):
				return true
			}
		}
		return false
	}
}
