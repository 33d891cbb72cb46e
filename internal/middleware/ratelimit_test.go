package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/ratelimit"
)

func newLimitedRouter(limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/orders", RateLimit(limiter), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsPastLimitWithHeaders(t *testing.T) {
	r := newLimitedRouter(ratelimit.NewMemoryWindow(3, time.Minute))

	for i := 0; i < 3; i++ {
		if w := hit(r, "203.0.113.7"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := hit(r, "203.0.113.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	if got := w.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want 3", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset header missing")
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on rejection")
	}
}

func TestRateLimit_KeysByClientIP(t *testing.T) {
	r := newLimitedRouter(ratelimit.NewMemoryWindow(1, time.Minute))

	if w := hit(r, "203.0.113.7"); w.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", w.Code)
	}
	if w := hit(r, "203.0.113.7"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: expected 429, got %d", w.Code)
	}

	// A different client has its own budget
	if w := hit(r, "198.51.100.9"); w.Code != http.StatusOK {
		t.Errorf("second client: expected 200, got %d", w.Code)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("backend unreachable")
}
func (brokenLimiter) Limit() int            { return 0 }
func (brokenLimiter) Window() time.Duration { return 0 }

func TestRateLimit_FailsOpenOnLimiterError(t *testing.T) {
	r := newLimitedRouter(brokenLimiter{})

	if w := hit(r, "203.0.113.7"); w.Code != http.StatusOK {
		t.Errorf("expected request to pass when the limiter errors, got %d", w.Code)
	}
}
