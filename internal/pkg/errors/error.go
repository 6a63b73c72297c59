package xerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common reusable client errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConflict             = errors.New("conflict: resource already exists")
	ErrInternal             = errors.New("internal server error")
	ErrRateLimited          = errors.New("too many requests")
	ErrSubscriptionRequired = errors.New("subscription required")
	ErrNetwork              = errors.New("network failure")
)

// Codes the backend (or the client itself) attaches to error bodies.
const (
	CodeUnauthorized         = "unauthorized"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeNetworkFailure       = "network_failure"
)

// Kind is the coarse error taxonomy every caller branches on.
type Kind string

const (
	KindUnauthorized         Kind = "unauthorized"
	KindSubscriptionRequired Kind = "subscription_required"
	KindNotFound             Kind = "not_found"
	KindValidation           Kind = "validation"
	KindServerError          Kind = "server_error"
	KindNetworkFailure       Kind = "network_failure"
	KindUnknown              Kind = "unknown"
)

// APIError is the single normalized error shape returned by the HTTP client.
// Status is 0 when the request never produced a response.
type APIError struct {
	Status  int
	Message string
	Code    string
	cause   error
}

func NewAPIError(status int, message, code string) *APIError {
	return &APIError{Status: status, Message: message, Code: code}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(cause error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("network failure: %v", cause),
		Code:    CodeNetworkFailure,
		cause:   cause,
	}
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match an APIError against the sentinel for its kind.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrSubscriptionRequired:
		return e.Status == http.StatusPaymentRequired
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrInternal:
		return e.Status >= http.StatusInternalServerError
	case ErrNetwork:
		return e.Status == 0
	}
	return false
}

// Kind classifies the error by status.
func (e *APIError) Kind() Kind {
	switch {
	case e.Status == 0:
		return KindNetworkFailure
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return KindUnauthorized
	case e.Status == http.StatusPaymentRequired:
		return KindSubscriptionRequired
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status >= 400 && e.Status < 500:
		return KindValidation
	case e.Status >= 500:
		return KindServerError
	}
	return KindUnknown
}

// Retryable reports whether repeating the same request could succeed.
func (e *APIError) Retryable() bool {
	k := e.Kind()
	return k == KindNetworkFailure || k == KindServerError || e.Status == http.StatusTooManyRequests
}

// KindOf returns the taxonomy of any error; non-API errors are unknown.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return KindUnknown
}

// AsAPIError extracts the normalized error, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsUnauthorized is the check the session layer uses to decide on a hard logout.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
