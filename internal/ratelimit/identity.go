package ratelimit

import (
	"net/http"
	"strings"
)

// AnonymousIdentity is used when no proxy header carries a caller address.
const AnonymousIdentity = "anonymous"

// ClientIdentity derives a stable caller identity from proxy headers.
// X-Forwarded-For (first hop) takes priority over X-Real-IP and
// CF-Connecting-IP; the order is fixed. Forwarded-for is spoofable, which is
// acceptable for a coarse abuse guard that is not an auth boundary.
func ClientIdentity(h http.Header) string {
	if v := h.Get("X-Forwarded-For"); v != "" {
		first := v
		if idx := strings.IndexByte(v, ','); idx >= 0 {
			first = v[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if v := strings.TrimSpace(h.Get("X-Real-IP")); v != "" {
		return v
	}
	if v := strings.TrimSpace(h.Get("CF-Connecting-IP")); v != "" {
		return v
	}
	return AnonymousIdentity
}
