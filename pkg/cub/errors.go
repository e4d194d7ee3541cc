package cub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Configuration errors. They surface on the first request made with a bad
// configuration.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrMissingAPIKey      = errors.New("API key is required")
	ErrInvalidAPIURL      = errors.New("invalid API URL")
	ErrUnsupportedBackend = errors.New("unsupported HTTP backend")
	ErrNATSURLRequired    = errors.New("NATS URL is required for the nats backend")
	ErrUnsupportedBodyEnc = errors.New("unsupported body encoding")
)

// Transport and decoding errors.
var (
	// ErrConnection matches every *ConnectionError via errors.Is.
	ErrConnection         = errors.New("connection failed")
	ErrUnsupportedParam   = errors.New("unsupported parameter value")
	ErrIdentityMismatch   = errors.New("object identity mismatch")
	ErrUnexpectedKind     = errors.New("unexpected object kind")
	ErrUnexpectedPayload  = errors.New("unexpected response payload")
	ErrMissingIdentifier  = errors.New("object has no identifier")
	ErrNotLoggedIn        = errors.New("no session token, log in first")
	ErrLoginTokenNotFound = errors.New("login response carried no token")
)

// Application error sentinels matched by (*APIError).Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("invalid or expired credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrServer       = errors.New("server error")
)

// ConnectionError is returned once a request could not reach the application
// layer: retries were exhausted or the caller's context ended first.
type ConnectionError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: connection failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

// Unwrap returns the last transport error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// APIError is a non-2xx response converted to an error by the resource clients.
type APIError struct {
	StatusCode int
	Message    string
	Params     map[string]any
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if e.RequestID != "" {
		return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, msg, e.RequestID)
	}

	return fmt.Sprintf("API error %d: %s", e.StatusCode, msg)
}

// Is implements errors.Is for the status sentinels.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return target == ErrBadRequest
	case e.StatusCode == http.StatusUnauthorized:
		return target == ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return target == ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return target == ErrServer
	}

	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConnectionError checks if the error is a terminal connection failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// errorEnvelope covers the error shapes the service returns:
// {"error": {"description": "...", "params": {...}}}, {"error": "..."} and
// {"message": "..."}.
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

type errorDetail struct {
	Description string         `json:"description"`
	Message     string         `json:"message"`
	Params      map[string]any `json:"params"`
}

// ParseErrorMessage extracts the human readable message and the per-field
// params from an error body. Bodies that are not JSON yield their raw text.
func ParseErrorMessage(body []byte) (string, map[string]any) {
	if len(body) == 0 {
		return "", nil
	}

	var env errorEnvelope

	err := json.Unmarshal(body, &env)
	if err != nil {
		return string(body), nil
	}

	if len(env.Error) > 0 {
		var detail errorDetail
		if json.Unmarshal(env.Error, &detail) == nil {
			msg := detail.Description
			if msg == "" {
				msg = detail.Message
			}

			if msg != "" || detail.Params != nil {
				return msg, detail.Params
			}
		}

		var msg string
		if json.Unmarshal(env.Error, &msg) == nil && msg != "" {
			return msg, nil
		}
	}

	if env.Message != "" {
		return env.Message, nil
	}

	return env.Detail, nil
}
