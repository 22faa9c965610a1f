package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/photoshare/pkg/apperror"
	"github.com/google/uuid"
)

func TestLimiterWithoutRedisAllows(t *testing.T) {
	l := New(nil)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		release, err := l.Acquire(context.Background(), userID, "comment", time.Minute)
		if err != nil {
			t.Fatalf("Acquire #%d: unexpected error %v", i, err)
		}
		release()
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if _, err := l.Acquire(context.Background(), uuid.New(), "post", time.Second); err != nil {
		t.Fatalf("nil limiter should allow, got %v", err)
	}
}

func TestRateLimitErrorUnwrapsToSentinel(t *testing.T) {
	err := error(&RateLimitError{Message: "slow down", RetryAfter: time.Second})
	if !errors.Is(err, apperror.ErrRateLimitExceeded) {
		t.Fatalf("RateLimitError should unwrap to ErrRateLimitExceeded")
	}
	if apperror.MapErrorToStatus(err) != 429 {
		t.Errorf("expected 429, got %d", apperror.MapErrorToStatus(err))
	}
}
