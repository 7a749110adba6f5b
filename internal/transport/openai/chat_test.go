package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			want: "rate_limited",
		},
		{
			name: "unauthorized",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			want: "auth_failed",
		},
		{
			name: "forbidden",
			err:  &openai.APIError{HTTPStatusCode: http.StatusForbidden},
			want: "auth_failed",
		},
		{
			name: "server error",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadGateway},
			want: "server_error",
		},
		{
			name: "bad request",
			err:  &openai.APIError{HTTPStatusCode: http.StatusBadRequest},
			want: "bad_request",
		},
		{
			name: "request error carries status",
			err:  &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable},
			want: "server_error",
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("chat completion: %w", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}),
			want: "rate_limited",
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: "timeout",
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureReason(tt.err); got != tt.want {
				t.Errorf("FailureReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
