package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("client-a") {
			t.Fatalf("request %d denied under limit", i+1)
		}
	}
	if rl.Allow("client-a") {
		t.Error("request over limit allowed")
	}
}

func TestRateLimiterWindowRecovery(t *testing.T) {
	rl := NewRateLimiter(2)
	rl.window = 50 * time.Millisecond

	rl.Allow("client-a")
	rl.Allow("client-a")
	if rl.Allow("client-a") {
		t.Fatal("third request inside window allowed")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("client-a") {
		t.Error("request after window expiry denied")
	}
}

func TestRateLimiterClientIsolation(t *testing.T) {
	rl := NewRateLimiter(1)

	if !rl.Allow("client-a") {
		t.Fatal("first client denied")
	}
	if !rl.Allow("client-b") {
		t.Error("second client throttled by first client's usage")
	}
	if rl.Allow("client-a") {
		t.Error("first client over limit allowed")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	// A different remote host is tracked separately
	other := httptest.NewRequest(http.MethodPost, "/v1/mcp", nil)
	other.RemoteAddr = "10.0.0.2:54321"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other host status = %d", rec.Code)
	}
}
