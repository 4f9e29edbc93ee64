package errors

import "net/http"

// Fixed user-facing messages.
const (
	MessageFallback = "request failed"
	MessageNetwork  = "network request failed"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "invalid request parameters",
	http.StatusUnauthorized:        "session expired",
	http.StatusForbidden:           "permission denied",
	http.StatusNotFound:            "resource not found",
	http.StatusInternalServerError: "internal server error",
	http.StatusBadGateway:          "bad gateway",
	http.StatusServiceUnavailable:  "service unavailable",
	http.StatusGatewayTimeout:      "gateway timeout",
}

// MessageForStatus returns the fixed message for an HTTP status, or "" when unmapped.
func MessageForStatus(status int) string {
	return statusMessages[status]
}

// KindForStatus classifies an HTTP status.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindUnknown
	}
}

// EnvelopeFields is the business part of a decoded wire envelope.
type EnvelopeFields struct {
	Code    int
	Message string
	Data    any
}

// Failure is every raw failure shape the request pipeline can observe.
//   - StatusCode == 0 means no HTTP response was received.
//   - Envelope is set when a body decoded as an envelope.
//   - TransportErr carries the underlying client error, if any.
type Failure struct {
	StatusCode   int
	Envelope     *EnvelopeFields
	TransportErr error
}

// Normalize maps a Failure to an *APIError. It is total and deterministic.
//
// Message precedence: business message > status table > transport message > fallback.
func Normalize(f Failure) *APIError {
	if f.StatusCode == 0 {
		return Network(f.TransportErr)
	}

	if f.StatusCode >= 200 && f.StatusCode <= 299 {
		code, msg := f.StatusCode, ""
		if f.Envelope != nil {
			code, msg = f.Envelope.Code, f.Envelope.Message
		}
		apiErr := Business(code, msg)
		apiErr.Cause = f.TransportErr
		if f.Envelope != nil {
			apiErr.Details = f.Envelope.Data
		}
		return apiErr
	}

	apiErr := &APIError{
		Code:  f.StatusCode,
		Kind:  KindForStatus(f.StatusCode),
		Cause: f.TransportErr,
	}
	if f.Envelope != nil {
		apiErr.Details = f.Envelope.Data
	}
	apiErr.Message = selectMessage(f)
	return apiErr
}

func selectMessage(f Failure) string {
	if f.Envelope != nil && f.Envelope.Message != "" {
		return f.Envelope.Message
	}
	if msg := MessageForStatus(f.StatusCode); msg != "" {
		return msg
	}
	if f.TransportErr != nil && f.TransportErr.Error() != "" {
		return f.TransportErr.Error()
	}
	return MessageFallback
}
