package index

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestSearchError_IsByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewQueryError("movies", 400, "bad filter"))

	if !errors.Is(err, ErrQuery) {
		t.Error("expected wrapped query error to match ErrQuery")
	}
	if errors.Is(err, ErrAuth) {
		t.Error("query error must not match ErrAuth")
	}
	if Code(err) != ErrCodeQuery {
		t.Errorf("expected code %s, got %s", ErrCodeQuery, Code(err))
	}
}

func TestSearchError_Message(t *testing.T) {
	tests := []struct {
		err  *SearchError
		want string
	}{
		{err: NewServiceError("movies", 503, ""), want: "[SERVICE_ERROR] movies: search service error"},
		{err: &SearchError{Code: ErrCodeNetwork, Message: "network error"}, want: "[NETWORK_ERROR] network error"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestAsSearchError(t *testing.T) {
	if AsSearchError("movies", nil) != nil {
		t.Error("expected nil for nil error")
	}

	deadline := AsSearchError("movies", context.DeadlineExceeded)
	if !IsCancelled(deadline) {
		t.Errorf("expected cancellation, got %v", deadline)
	}

	cause := errors.New("connection reset")
	network := AsSearchError("movies", cause)
	if !errors.Is(network, ErrNetwork) || !errors.Is(network, cause) {
		t.Errorf("expected network error wrapping cause, got %v", network)
	}
	if !IsRetryable(network) {
		t.Error("network errors are retryable")
	}

	auth := AsSearchError("movies", NewAuthError("", 401, ""))
	if auth.Index != "movies" {
		t.Errorf("expected index name to be filled in, got %q", auth.Index)
	}
}
