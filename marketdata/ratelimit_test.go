package marketdata

import "testing"

func TestTWRateLimiterAllowsUpToCeiling(t *testing.T) {
	limiter := NewTWRateLimiter(2)
	if err := limiter.Allow(); err != nil {
		t.Fatalf("unexpected error on hit 1: %v", err)
	}
	if err := limiter.Allow(); err != nil {
		t.Fatalf("unexpected error on hit 2: %v", err)
	}
	if err := limiter.Allow(); err == nil {
		t.Fatal("expected RateLimitExceeded on hit 3")
	}
}

func TestRateLimitExceededErrorMessage(t *testing.T) {
	err := &RateLimitExceeded{Source: "TWSE"}
	if err.Error() == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestDefaultTWRateLimiterReturnsSingleton(t *testing.T) {
	if DefaultTWRateLimiter() != DefaultTWRateLimiter() {
		t.Fatal("expected DefaultTWRateLimiter to return the same process-wide instance")
	}
}
