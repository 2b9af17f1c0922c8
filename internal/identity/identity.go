// Package identity derives the anonymous dedup key for an entrant.
//
// Hash maps a raw client address to a one-way digest; ClientAddress decides
// which address a request is attributed to. Both are pure and safe for
// concurrent use.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Fallback is used when a request carries no usable address at all.
const Fallback = "127.0.0.1"

// Hash returns the lowercase hex SHA-256 digest of raw. Any input, including
// malformed addresses, is accepted and hashed as-is.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ClientAddress extracts the address a request is attributed to.
//
// Precedence:
//  1. the first comma-separated segment of the first X-Forwarded-For value,
//     verbatim (surrounding whitespace is kept)
//  2. X-Real-IP
//  3. the transport peer address, without port
//  4. Fallback
//
// Empty values fall through to the next source.
func ClientAddress(r *http.Request) string {
	if r == nil {
		return Fallback
	}
	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		if first, _, _ := strings.Cut(xff[0], ","); first != "" {
			return first
		}
	}
	if xri := r.Header.Values("X-Real-IP"); len(xri) > 0 && xri[0] != "" {
		return xri[0]
	}
	if addr := peerHost(r.RemoteAddr); addr != "" {
		return addr
	}
	return Fallback
}

// peerHost strips the port from a host:port remote address. Values without a
// port are returned unchanged.
func peerHost(remote string) string {
	if remote == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
