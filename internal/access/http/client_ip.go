// Package http provides the HTTP handlers and middleware of the access-control subsystem.
package http

import (
	"net"
	"net/http"
	"strings"
)

const unknownClient = "0.0.0.0"

// ClientIdentifier returns the rate limit key of a request: the first X-Forwarded-For
// entry, then X-Real-IP, then the host part of RemoteAddr, then 0.0.0.0. Only values
// that parse as an IP address are used, and they are returned in canonical form so the
// key stays short and bounded whatever the client sends.
func ClientIdentifier(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")

	for _, candidate := range []string{first, r.Header.Get("X-Real-IP"), r.RemoteAddr} {
		if ip := parseClientIP(candidate); ip != nil {
			return ip.String()
		}
	}

	return unknownClient
}

// parseClientIP accepts a bare address or a host:port pair.
func parseClientIP(value string) net.IP {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if ip := net.ParseIP(value); ip != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
