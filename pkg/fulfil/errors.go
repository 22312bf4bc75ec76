package fulfil

import (
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	// ErrModelNameMissing is returned when a query, count or resource needs a
	// model name and none was given.
	ErrModelNameMissing = errors.New("the model name is missing, use Set to define it")

	// ErrNotFound is returned by strict lookups that matched no row.
	ErrNotFound = errors.New("resource not found")

	// ErrRetryLimitExceeded is returned when batch iteration keeps getting rate
	// limited after all retries were spent.
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")

	// ErrTransportRequired is returned when a detached resource is persisted.
	ErrTransportRequired = errors.New("resource is not attached to a client")

	ErrTransportNil         = errors.New("transport is required")
	ErrInvalidCount         = errors.New("count response is not an integer")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrCacheDisabled        = errors.New("cache disabled")
	ErrKeyNotFound          = errors.New("key not found")
	ErrEntryExpired         = errors.New("entry expired")
)

// TransportError is returned by transports when the remote API answers with a
// non-success status code.
type TransportError struct {
	StatusCode int
	Message    string
	Body       []byte
	Headers    http.Header
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// RetryLimitExceededError reports a batch that stayed rate limited. It does
// not unwrap to the last 429, so IsRateLimited and AsTransportError are false
// for it; the last error is kept in Last.
type RetryLimitExceededError struct {
	Retries int
	Offset  int
	Last    error
}

// Error implements the error interface.
func (e *RetryLimitExceededError) Error() string {
	return fmt.Sprintf("the maximum number of %d retries has been reached at offset %d", e.Retries, e.Offset)
}

// Is lets errors.Is match ErrRetryLimitExceeded.
func (e *RetryLimitExceededError) Is(target error) bool {
	return target == ErrRetryLimitExceeded
}

// AsTransportError unwraps err into a *TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	transportErr := &TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr, true
	}

	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if transportErr, ok := AsTransportError(err); ok {
		return transportErr.StatusCode
	}

	return 0
}

// IsRateLimited checks if the error is a 429 response.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsNotFound checks if the error is a strict lookup miss or a 404 response.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}

	return StatusCode(err) == http.StatusNotFound
}
