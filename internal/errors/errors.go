package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a normalized API failure.
type Kind string

const (
	// KindValidation indicates HTTP 400.
	KindValidation Kind = "validation"
	// KindAuth indicates HTTP 401; the session has been invalidated.
	KindAuth Kind = "auth"
	// KindPermission indicates HTTP 403.
	KindPermission Kind = "permission"
	// KindNotFound indicates HTTP 404.
	KindNotFound Kind = "not_found"
	// KindServer indicates an HTTP 5xx status.
	KindServer Kind = "server"
	// KindNetwork indicates no HTTP response was received.
	KindNetwork Kind = "network"
	// KindBusiness indicates a 2xx response whose envelope code is not the success code.
	KindBusiness Kind = "business"
	// KindUnknown covers any other non-2xx status.
	KindUnknown Kind = "unknown"
)

// NetworkCode is the code used when no HTTP response was received.
const NetworkCode = -1

// Sentinels for errors.Is matching against an *APIError's Kind.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrPermission = errors.New("permission error")
	ErrNotFound   = errors.New("not found error")
	ErrServer     = errors.New("server error")
	ErrNetwork    = errors.New("network error")
	ErrBusiness   = errors.New("business error")
)

var kindSentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindAuth:       ErrAuth,
	KindPermission: ErrPermission,
	KindNotFound:   ErrNotFound,
	KindServer:     ErrServer,
	KindNetwork:    ErrNetwork,
	KindBusiness:   ErrBusiness,
}

// APIError is the single error shape every request failure converges to.
// Code is the business code, the HTTP status, or NetworkCode.
type APIError struct {
	Code    int
	Message string
	Details any
	Kind    Kind
	// Cause is the underlying transport or decode error (optional).
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches the Kind sentinels, so errors.Is(err, ErrAuth) works through wrapping.
func (e *APIError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// Business creates an error for an envelope whose code is not the success code.
func Business(code int, message string) *APIError {
	if message == "" {
		message = MessageFallback
	}
	return &APIError{Code: code, Message: message, Kind: KindBusiness}
}

// Network creates an error for a request that received no response.
func Network(cause error) *APIError {
	return &APIError{Code: NetworkCode, Message: MessageNetwork, Kind: KindNetwork, Cause: cause}
}

// Wrapf wraps an existing error as a network-level APIError with a formatted message.
func Wrapf(err error, format string, args ...any) *APIError {
	if err == nil {
		return nil
	}
	return &APIError{
		Code:    NetworkCode,
		Message: fmt.Sprintf(format, args...),
		Kind:    KindNetwork,
		Cause:   err,
	}
}

// As extracts an *APIError from err.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isKind(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}

// IsAuth checks if an error is an authentication (401) error.
func IsAuth(err error) bool {
	return isKind(err, KindAuth)
}

// IsNetwork checks if an error is a no-response error.
func IsNetwork(err error) bool {
	return isKind(err, KindNetwork)
}

// IsBusiness checks if an error is a business (envelope) error.
func IsBusiness(err error) bool {
	return isKind(err, KindBusiness)
}

// IsNotFound checks if an error is a 404 error.
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

// GetCode returns the Code from an error, or 0 if not an APIError.
func GetCode(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Code
	}
	return 0
}
