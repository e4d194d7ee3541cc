package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Static errors for err113 compliance.
var (
	// ErrConnectionFailure marks attempts that never reached the service.
	// Only errors wrapping it are retried.
	ErrConnectionFailure = errors.New("connection failure")
)

// BackendRequest is a fully built attempt: absolute URL, final headers and
// encoded body. Backends must not modify it; it is reused across attempts.
type BackendRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// BackendResponse is whatever the service answered, whatever the status.
type BackendResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Backend performs a single attempt. Implementations report attempts that did
// not reach the service with an error wrapping ErrConnectionFailure and never
// retry on their own.
type Backend interface {
	Name() string
	Send(ctx context.Context, req *BackendRequest) (*BackendResponse, error)
	Close() error
}

// ConnectionFailure wraps err so that the client retries it.
func ConnectionFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrConnectionFailure, err)
}

// classifyTransportError decides whether an error returned by an HTTP round
// trip is a connection failure. Misconfiguration such as an unsupported
// scheme or an untrusted certificate is returned as is.
func classifyTransportError(err error) error {
	retry, _ := retryablehttp.DefaultRetryPolicy(context.Background(), nil, err)
	if !retry {
		return err
	}

	return ConnectionFailure(err)
}
