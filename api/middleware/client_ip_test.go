package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientIPTrustsOnlyConfiguredHops(t *testing.T) {
	cases := []struct {
		name      string
		hops      int
		forwarded []string
		want      string
	}{
		{name: "no proxy ignores header", hops: 0, forwarded: []string{"6.6.6.6"}, want: "10.0.0.9"},
		{name: "one proxy takes right-most entry", hops: 1, forwarded: []string{"6.6.6.6, 203.0.113.7"}, want: "203.0.113.7"},
		{name: "two proxies", hops: 2, forwarded: []string{"6.6.6.6, 203.0.113.7", "198.51.100.2"}, want: "203.0.113.7"},
		{name: "short chain falls back to socket", hops: 2, forwarded: []string{"203.0.113.7"}, want: "10.0.0.9"},
		{name: "garbage entry falls back to socket", hops: 1, forwarded: []string{"not-an-ip"}, want: "10.0.0.9"},
		{name: "no header", hops: 1, want: "10.0.0.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := ClientIP(tc.hops)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = clientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.9:5555"
			for _, value := range tc.forwarded {
				req.Header.Add("X-Forwarded-For", value)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	store, _ := newRateStore(t)
	handler := ClientIP(1)(RateLimit(NewRateLimitPolicy("apply", time.Minute, 1, 0), store, nil)(okHandler()))

	send := func(spoofed string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pets/x/apply", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		req.Header.Set("X-Forwarded-For", spoofed+", 203.0.113.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2"))
}
