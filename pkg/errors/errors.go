// Package errors defines the error taxonomy shared by the sync and query
// paths, plus an AppError wrapper that carries an HTTP status for the
// serving layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFeedUnavailable covers transport failures and non-2xx responses
	// while fetching the product feed.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrFeedOversize is returned when the feed payload exceeds the
	// configured size limit.
	ErrFeedOversize = errors.New("feed payload too large")
	// ErrEmptyFeed is returned when parsing yields zero product records.
	// A sync run must treat this as a failure, never a silent success.
	ErrEmptyFeed = errors.New("no products found in feed")
	// ErrStoreUnavailable covers Redis connectivity and command failures.
	ErrStoreUnavailable = errors.New("catalog store unavailable")
	// ErrSyncInProgress is returned when a manual sync is requested while
	// another run is still active.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNotConfigured marks missing credentials or URLs; fatal at startup,
	// never retried automatically.
	ErrNotConfigured = errors.New("not configured")

	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timed out")
	ErrInternal     = errors.New("internal error")
)

// AppError wraps a sentinel error with a message and an HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError around a sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf creates an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the serving layer should
// respond with.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmptyFeed):
		return http.StatusBadGateway
	case errors.Is(err, ErrFeedUnavailable), errors.Is(err, ErrFeedOversize):
		return http.StatusBadGateway
	case errors.Is(err, ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
