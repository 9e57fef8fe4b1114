package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const ctxClientIP contextKey = "client_ip"

// ClientIP resolves the caller address once per request. With hops > 0 the
// address is the X-Forwarded-For entry that the outermost trusted proxy saw,
// counted from the right; entries further left are client supplied and
// ignored. Without trusted proxies only the socket address counts.
func ClientIP(hops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, hops)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxClientIP, ip)))
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip, ok := r.Context().Value(ctxClientIP).(string); ok {
		return ip
	}
	return remoteHost(r)
}

func resolveClientIP(r *http.Request, hops int) string {
	if hops <= 0 {
		return remoteHost(r)
	}
	var hopsSeen []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(header, ",") {
			hopsSeen = append(hopsSeen, strings.TrimSpace(part))
		}
	}
	idx := len(hopsSeen) - hops
	if idx < 0 {
		return remoteHost(r)
	}
	if ip := net.ParseIP(hopsSeen[idx]); ip != nil {
		return ip.String()
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
