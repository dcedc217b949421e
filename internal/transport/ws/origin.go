package ws

import (
	"net/url"
	"strings"
)

// normalizeOrigin reduces an Origin header to lower-cased scheme://host[:port]
func normalizeOrigin(origin string) (string, bool) {
	trimmed := strings.TrimSpace(origin)
	if trimmed == "" {
		return "", false
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host, true
}

// originAllowed applies the allow-list. An empty list or "*" admits any
// origin, including requests that carry none.
func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	for _, entry := range allowed {
		if entry == "*" {
			return true
		}
		if !ok {
			continue
		}
		if want, valid := normalizeOrigin(entry); valid && want == normalized {
			return true
		}
	}
	return false
}
