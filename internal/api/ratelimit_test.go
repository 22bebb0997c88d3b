package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 3})

	for i := range 3 {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request over the burst should be refused")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("clients are limited independently")
	}
}

func TestRateLimiterPrune(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 1})
	rl.Allow("10.0.0.1")

	rl.prune(time.Now())
	if len(rl.buckets) != 1 {
		t.Fatalf("fresh bucket pruned")
	}
	rl.prune(time.Now().Add(rl.cleanupTTL + time.Second))
	if len(rl.buckets) != 0 {
		t.Errorf("idle bucket kept, %d left", len(rl.buckets))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"forwarded", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"bad forwarded", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "nonsense"}, "10.0.0.1"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "2001:db8::1"}, "2001:db8::1"},
		{"unparseable", "pipe", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/health", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
