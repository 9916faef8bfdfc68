package relay

import (
	"context"
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrMalformedResponse is returned when a response lacks the expected result.
	ErrMalformedResponse = errors.New("malformed relay response")

	// ErrNoTipAccounts is returned when the engine reports no tip accounts.
	ErrNoTipAccounts = errors.New("no tip accounts available")

	// ErrEmptyBundle is returned when a bundle has no transactions.
	ErrEmptyBundle = errors.New("bundle has no transactions")

	// ErrBundleTooLarge is returned when a bundle exceeds MaxBundleTransactions.
	ErrBundleTooLarge = errors.New("bundle exceeds maximum transaction count")
)

// Block engine error codes.
const (
	// RateLimitedCode is returned when the caller exceeded its request quota.
	RateLimitedCode = -32097
)

// RPCError represents a JSON-RPC error response.
type RPCError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// HTTPError represents a non-200 HTTP answer from the block engine.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited returns true if the error indicates the caller was throttled.
func IsRateLimited(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
		return true
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == RateLimitedCode {
		return true
	}
	return false
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Don't retry once the caller gave up. Client timeouts stay retryable.
	if errors.Is(err, context.Canceled) {
		return false
	}

	// Local validation failures will fail the same way again
	if errors.Is(err, ErrEmptyBundle) || errors.Is(err, ErrBundleTooLarge) {
		return false
	}

	return true
}
