package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// RateLimiter Tests
// =============================================================================

// newFixedLimiter returns a limiter whose clock is controlled by the test.
func newFixedLimiter(t *testing.T, maxAttempts int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(maxAttempts, window)
	t.Cleanup(rl.Stop)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow_UnderLimit(t *testing.T) {
	rl, _ := newFixedLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.Allow("192.168.1.1") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_Allow_AtLimit(t *testing.T) {
	rl, _ := newFixedLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		rl.Allow("192.168.1.1")
	}

	if rl.Allow("192.168.1.1") {
		t.Error("6th request should be denied")
	}
}

func TestRateLimiter_Allow_DifferentKeys(t *testing.T) {
	rl, _ := newFixedLimiter(t, 2, time.Minute)

	rl.Allow("192.168.1.1")
	rl.Allow("192.168.1.1")

	if rl.Allow("192.168.1.1") {
		t.Error("first IP should be limited")
	}
	if !rl.Allow("192.168.1.2") {
		t.Error("second IP should not be affected")
	}
}

func TestRateLimiter_Allow_WindowExpiry(t *testing.T) {
	rl, now := newFixedLimiter(t, 1, time.Minute)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request should be denied")
	}

	*now = now.Add(time.Minute)

	if !rl.Allow("10.0.0.1") {
		t.Error("request after window should be allowed")
	}
}

func TestRateLimiter_TimeUntilReset(t *testing.T) {
	rl, now := newFixedLimiter(t, 1, time.Minute)

	if got := rl.TimeUntilReset("unknown"); got != 0 {
		t.Errorf("expected 0 for unknown key, got %v", got)
	}

	rl.Allow("10.0.0.1")
	*now = now.Add(20 * time.Second)

	if got := rl.TimeUntilReset("10.0.0.1"); got != 40*time.Second {
		t.Errorf("expected 40s, got %v", got)
	}

	*now = now.Add(time.Minute)
	if got := rl.TimeUntilReset("10.0.0.1"); got != 0 {
		t.Errorf("expected 0 after window, got %v", got)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, now := newFixedLimiter(t, 1, time.Minute)

	rl.Allow("old")
	*now = now.Add(45 * time.Second)
	rl.Allow("new")
	*now = now.Add(30 * time.Second)

	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["old"]; ok {
		t.Error("expired entry should be removed")
	}
	if _, ok := rl.entries["new"]; !ok {
		t.Error("live entry should be kept")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)
	defer rl.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}

// =============================================================================
// RateLimitMiddleware Tests
// =============================================================================

func TestRateLimitMiddleware_Limit(t *testing.T) {
	rl, _ := newFixedLimiter(t, 2, time.Minute)
	mw := NewRateLimitMiddleware(rl, newTestLogger())

	called := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusCreated)
	})
	h := mw.Limit(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if called != 2 {
		t.Errorf("expected next to be called twice, got %d", called)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRateLimitMiddleware_JSON(t *testing.T) {
	rl, _ := newFixedLimiter(t, 1, time.Minute)
	mw := NewRateLimitMiddleware(rl, newTestLogger())
	h := mw.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var rec *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/team/signup/", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.8:5000"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
	}

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Errorf("expected rate_limited, got %q", body.Error.Code)
	}
}

func TestNewSignupRateLimit(t *testing.T) {
	mw := NewSignupRateLimit(newTestLogger())
	defer mw.Stop()

	if mw.limiter.maxAttempts != SignupAttempts {
		t.Errorf("expected %d attempts, got %d", SignupAttempts, mw.limiter.maxAttempts)
	}
	if mw.limiter.window != SignupWindow {
		t.Errorf("expected %v window, got %v", SignupWindow, mw.limiter.window)
	}
}

// =============================================================================
// getClientIP Tests
// =============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{
			name:       "x-forwarded-for first entry",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 70.41.3.18"},
			want:       "203.0.113.1",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": " 203.0.113.2 "},
			want:       "203.0.113.2",
		},
		{
			name:       "x-forwarded-for wins over x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
				"X-Real-IP":       "203.0.113.4",
			},
			want: "203.0.113.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
