package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/mmk-ui-client/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// An *APIError yields its Kind; anything else yields the innermost concrete type
// converted to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := apperrors.As(err); ok && apiErr.Kind != "" {
		return string(apiErr.Kind)
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
