package clientip

import (
	"net/http"
	"strings"
)

// Unknown is used as the rate-limit key when no forwarding header is present.
const Unknown = "unknown"

// FromRequest derives the client identity from forwarding headers, in
// priority order: first X-Forwarded-For entry, then X-Real-IP, then
// CF-Connecting-IP. Requests arrive through a proxy chain, so RemoteAddr
// only ever names the hop in front of us.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the originating client
		first := strings.Split(forwarded, ",")[0]
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	return Unknown
}
