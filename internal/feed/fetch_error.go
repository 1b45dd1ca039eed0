package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType classifies why a feed could not be fetched.
type ErrorType string

const (
	ErrTypeRateLimited ErrorType = "rate_limited"
	ErrTypeForbidden   ErrorType = "forbidden"
	ErrTypeNotFound    ErrorType = "not_found"
	ErrTypeGone        ErrorType = "gone"
	ErrTypeUpstream    ErrorType = "upstream_failure"
	ErrTypeUnexpected  ErrorType = "unexpected_status"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeTimeout     ErrorType = "timeout"
	ErrTypeParse       ErrorType = "parse_error"
)

// LogLevel decides whether a FetchError is logged at WARN or ERROR.
type LogLevel int

const (
	LevelWarn LogLevel = iota
	LevelError
)

// FetchError is the typed failure returned by Fetcher.Fetch.
type FetchError struct {
	Type       ErrorType
	Level      LogLevel
	StatusCode int
	URL        string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("feed fetch %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}

	return fmt.Sprintf("feed fetch %s: %v for %s", e.Type, e.Cause, e.URL)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// IsTransport reports whether the failure happened before a document was
// received (status, connection or timeout), as opposed to a parse failure.
func (e *FetchError) IsTransport() bool {
	return e.Type != ErrTypeParse
}

const (
	statusServerErrorLow  = 500
	statusServerErrorHigh = 599
)

// ClassifyHTTPStatus builds a FetchError for a non-200 response.
func ClassifyHTTPStatus(statusCode int, url string) *FetchError {
	fe := &FetchError{
		Type:       ErrTypeUnexpected,
		Level:      LevelError,
		StatusCode: statusCode,
		URL:        url,
		Cause:      fmt.Errorf("HTTP %d", statusCode),
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		fe.Type, fe.Level = ErrTypeRateLimited, LevelWarn
	case statusCode == http.StatusForbidden:
		fe.Type, fe.Level = ErrTypeForbidden, LevelWarn
	case statusCode == http.StatusNotFound:
		fe.Type, fe.Level = ErrTypeNotFound, LevelWarn
	case statusCode == http.StatusGone:
		fe.Type, fe.Level = ErrTypeGone, LevelWarn
	case statusCode >= statusServerErrorLow && statusCode <= statusServerErrorHigh:
		fe.Type, fe.Level = ErrTypeUpstream, LevelWarn
	}

	return fe
}

// ClassifyNetworkError builds a FetchError for connection-level failures,
// separating timeouts from other network errors.
func ClassifyNetworkError(cause error, url string) *FetchError {
	errType := ErrTypeNetwork

	var netErr net.Error
	if errors.Is(cause, context.DeadlineExceeded) || (errors.As(cause, &netErr) && netErr.Timeout()) {
		errType = ErrTypeTimeout
	}

	return &FetchError{Type: errType, Level: LevelWarn, URL: url, Cause: cause}
}

// ClassifyParseError builds a FetchError for a body that is not a feed.
func ClassifyParseError(cause error, url string) *FetchError {
	return &FetchError{Type: ErrTypeParse, Level: LevelWarn, URL: url, Cause: cause}
}
