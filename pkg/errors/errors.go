package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotDirectory        = errors.New("root path is not a directory")
	ErrDiscovery           = errors.New("directory traversal failed")
	ErrCorruptCache        = errors.New("corrupt index cache")
	ErrCacheWrite          = errors.New("writing index cache failed")
	ErrDecode              = errors.New("decoding document failed")
	ErrUnsupportedLanguage = errors.New("language not supported")
	ErrStopWords           = errors.New("stop-word list unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
	ErrTimeout             = errors.New("operation timed out")
)

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

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsFatal reports whether err must abort a corpus build rather than skip a
// single file.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrNotDirectory),
		errors.Is(err, ErrDiscovery),
		errors.Is(err, ErrCorruptCache),
		errors.Is(err, ErrCacheWrite),
		errors.Is(err, ErrStopWords):
		return true
	default:
		return false
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
