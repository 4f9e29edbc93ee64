package notify

import (
	"context"
	"time"
)

// Reasons a session is invalidated.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonLogout       = "logout"
)

// SessionInvalidated is emitted when the client drops its credential outside an
// explicit user action, typically because the backend answered HTTP 401.
type SessionInvalidated struct {
	Reason     string
	Method     string
	Path       string
	StatusCode int
	RequestID  string
	OccurredAt time.Time
}

// Sink describes a destination capable of consuming session invalidation events.
type Sink interface {
	SendSessionInvalidated(ctx context.Context, ev SessionInvalidated) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, ev SessionInvalidated) error

// SendSessionInvalidated implements the Sink interface.
func (f SinkFunc) SendSessionInvalidated(ctx context.Context, ev SessionInvalidated) error {
	if f == nil {
		return nil
	}
	return f(ctx, ev)
}
