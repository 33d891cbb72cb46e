package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds is what goes into the Retry-After header on rejection,
// rounded up so clients never retry early.
func (r Result) RetryAfterSeconds(now time.Time) int {
	remaining := r.ResetAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return secs
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)

	Limit() int

	Window() time.Duration
}

// Profile is a named (window, max) pair for one endpoint class. Each profile
// gets its own limiter instance so a client is tracked separately per class.
type Profile struct {
	Name   string
	Window time.Duration
	Max    int
}

var (
	// OrderCreation guards checkout/order creation endpoints
	OrderCreation = Profile{Name: "order_creation", Window: time.Minute, Max: 10}

	// PaymentVerification guards callback verification endpoints
	PaymentVerification = Profile{Name: "payment_verification", Window: time.Minute, Max: 20}

	// WebhookIngestion guards provider webhook endpoints
	WebhookIngestion = Profile{Name: "webhook_ingestion", Window: time.Minute, Max: 100}

	// Strict is the tighter generic profile for sensitive endpoints
	Strict = Profile{Name: "strict", Window: time.Minute, Max: 5}
)
