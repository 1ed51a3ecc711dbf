package handlers

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Origin reduces a URL to its scheme://host[:port] origin, or "" when it has
// none.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// checkOrigin accepts non-browser clients (no Origin header), pages served
// from a loopback host and the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	normalized := Origin(origin)
	if normalized == "" {
		h.logger.Warn("ws origin rejected", "origin", origin)
		return false
	}
	if h.origins[normalized] {
		return true
	}

	u, _ := url.Parse(normalized)
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}

	h.logger.Warn("ws origin rejected", "origin", origin)
	return false
}
