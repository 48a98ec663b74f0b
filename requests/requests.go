// Package requests reads client-facing facts off an *http.Request, honoring
// the headers set by the reverse proxy in front of the service.
package requests

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

func HasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return r.Body != nil && r.Body != http.NoBody
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address. Header values that do not parse as an IP are skipped.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

func Scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	switch p := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); p {
	case "http", "https":
		return p
	}
	return "http"
}

// BaseURL - scheme://host of the request as the client addressed it.
func BaseURL(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return Scheme(r) + "://" + host
}

func FullURL(r *http.Request) string {
	return BaseURL(r) + r.URL.RequestURI()
}
