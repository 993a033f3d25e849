package coingecko

import (
	"fmt"
	"net/http"
)

// ErrorType is the category of a failed markets request.
type ErrorType string

const (
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeRateLimit ErrorType = "rate_limit" // HTTP 429
	ErrorTypeServer    ErrorType = "server"     // HTTP 5xx
	ErrorTypeClient    ErrorType = "client"     // HTTP 4xx except 429
	ErrorTypeUnknown   ErrorType = "unknown"
)

// FetchError is a transport-level failure: the request did not produce a 2xx
// response.
type FetchError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("coingecko %s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("coingecko %s error: %s", e.Type, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func newNetworkError(cause error) *FetchError {
	return &FetchError{Type: ErrorTypeNetwork, Message: "network request failed", Cause: cause}
}

func newTimeoutError(cause error) *FetchError {
	return &FetchError{Type: ErrorTypeTimeout, Message: "request timed out", Cause: cause}
}

// classifyStatus maps a non-2xx status code to a FetchError.
func classifyStatus(statusCode int, body string) *FetchError {
	msg := body
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	e := &FetchError{StatusCode: statusCode, Message: msg}
	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case statusCode >= 500:
		e.Type = ErrorTypeServer
	case statusCode >= 400:
		e.Type = ErrorTypeClient
	default:
		e.Type = ErrorTypeUnknown
	}
	return e
}

// DecodeError reports a markets element that does not match the expected
// shape. Index is the element position in the response array, or -1 when the
// body itself is not a JSON array.
type DecodeError struct {
	Index  int
	Field  string
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decode markets response: %s", e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("decode markets[%d]: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("decode markets[%d].%s: %s", e.Index, e.Field, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
