package cub_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ivelum/cub-client/pkg/cub"
	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *cub.APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &cub.APIError{StatusCode: 404, Message: "Organization not found"},
			expected: "API error 404: Organization not found",
		},
		{
			name:     "status text fallback",
			err:      &cub.APIError{StatusCode: 503},
			expected: "API error 503: Service Unavailable",
		},
		{
			name:     "with request id",
			err:      &cub.APIError{StatusCode: 400, Message: "bad", RequestID: "req-1"},
			expected: "API error 400: bad (request_id: req-1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusBadRequest, cub.ErrBadRequest},
		{http.StatusUnauthorized, cub.ErrUnauthorized},
		{http.StatusForbidden, cub.ErrForbidden},
		{http.StatusNotFound, cub.ErrNotFound},
		{http.StatusTooManyRequests, cub.ErrRateLimited},
		{http.StatusBadGateway, cub.ErrServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			err := fmt.Errorf("getting organization: %w", &cub.APIError{StatusCode: tt.status})
			assert.ErrorIs(t, err, tt.sentinel)
			assert.NotErrorIs(t, err, cub.ErrConnection)
		})
	}

	assert.True(t, cub.IsNotFound(&cub.APIError{StatusCode: 404}))
	assert.True(t, cub.IsUnauthorized(&cub.APIError{StatusCode: 401}))
	assert.False(t, cub.IsNotFound(&cub.APIError{StatusCode: 409}))
}

func TestConnectionError(t *testing.T) {
	t.Parallel()

	err := &cub.ConnectionError{
		Method:   http.MethodGet,
		URL:      "https://id.example.com/v1/organizations",
		Attempts: 4,
		Err:      context.DeadlineExceeded,
	}

	assert.Equal(t,
		"GET https://id.example.com/v1/organizations: connection failed after 4 attempt(s): context deadline exceeded",
		err.Error())
	assert.True(t, cub.IsConnectionError(fmt.Errorf("listing: %w", err)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var target *cub.ConnectionError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, 4, target.Attempts)
}

func TestParseErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
		params  map[string]any
	}{
		{
			name:    "description with params",
			body:    `{"error": {"description": "Invalid data", "params": {"email": "required"}}}`,
			message: "Invalid data",
			params:  map[string]any{"email": "required"},
		},
		{
			name:    "nested message",
			body:    `{"error": {"message": "Nope"}}`,
			message: "Nope",
		},
		{
			name:    "string error",
			body:    `{"error": "Not found"}`,
			message: "Not found",
		},
		{
			name:    "top level message",
			body:    `{"message": "Slow down"}`,
			message: "Slow down",
		},
		{
			name:    "null error falls through",
			body:    `{"error": null, "detail": "Gone"}`,
			message: "Gone",
		},
		{
			name:    "plain text",
			body:    `Bad Gateway`,
			message: "Bad Gateway",
		},
		{
			name: "empty body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			message, params := cub.ParseErrorMessage([]byte(tt.body))
			assert.Equal(t, tt.message, message)
			assert.Equal(t, tt.params, params)
		})
	}
}
