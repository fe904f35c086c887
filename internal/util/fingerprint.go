package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// UnknownClient is used when no proxy header identifies the caller.
const UnknownClient = "unknown"

// ClientIP derives the caller address from proxy headers: the first
// X-Forwarded-For entry, then X-Real-IP, then UnknownClient.
func ClientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return UnknownClient
}

// HashIP returns the hex SHA-256 of ip. Only the hash is stored or logged.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Fingerprint is HashIP(ClientIP(h)).
func Fingerprint(h http.Header) string {
	return HashIP(ClientIP(h))
}
