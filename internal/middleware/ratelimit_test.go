package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-resale-market/internal/config"
)

type fakeCounter struct {
	count  int64
	ttl    time.Duration
	err    error
	window time.Duration
	keys   []string
}

func (f *fakeCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	f.keys = append(f.keys, key)
	f.window = window
	return f.count, f.ttl, f.err
}

func limiterFixture(t *testing.T, counter *fakeCounter) (echo.Context, *httptest.ResponseRecorder, echo.HandlerFunc) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase-intent", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/purchase-intent")
	c.Set("user_id", "buyer1")

	cfg := config.RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, Prefix: "rl"}
	handler := rateLimitWith(cfg, counter)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return c, rec, handler
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	counter := &fakeCounter{count: 1, ttl: 30 * time.Second}
	c, rec, handler := limiterFixture(t, counter)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("remaining = %q, want 1", got)
	}
	if counter.window != time.Minute {
		t.Errorf("window = %v, want 1m", counter.window)
	}
	if len(counter.keys) != 1 || counter.keys[0] != "rl:/v1/purchase-intent:buyer1" {
		t.Errorf("keys = %v", counter.keys)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	counter := &fakeCounter{count: 3, ttl: 42 * time.Second}
	c, rec, handler := limiterFixture(t, counter)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "43" {
		t.Errorf("Retry-After = %q, want 43", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("remaining = %q, want 0", got)
	}
}

func TestRateLimitFailsOpenOnCounterError(t *testing.T) {
	counter := &fakeCounter{err: errors.New("redis down")}
	c, rec, handler := limiterFixture(t, counter)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when the counter is unavailable", rec.Code)
	}
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase-intent", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RateLimit(config.RateLimitConfig{Enabled: false}, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
