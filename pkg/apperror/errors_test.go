package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load post: %w", ErrNotFound), http.StatusNotFound},
		{"unauthenticated", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation", Validation("text is required"), http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"app error code wins", New(http.StatusTeapot, "teapot", ErrNotFound), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MapErrorToStatus(tc.err); got != tc.want {
				t.Errorf("MapErrorToStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NotFound("post")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound to wrap ErrNotFound")
	}
	if err.Error() != "post not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
