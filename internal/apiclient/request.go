package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// RequestConfig carries per-call options. It is passed by value and never mutated.
type RequestConfig struct {
	// SkipAuth suppresses the Authorization header.
	SkipAuth bool
	// SkipErrorHandling suppresses the client's failure logging; the caller reports errors itself.
	// The 401 session invalidation still happens.
	SkipErrorHandling bool
	Query             url.Values
	Header            http.Header
}

// Envelope is the backend's uniform response wrapper.
// Code is nil when the body carried no code field; such a body is never a success.
type Envelope[T any] struct {
	Code    *int   `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// rawEnvelope decodes a body that may or may not be an envelope.
type rawEnvelope = Envelope[json.RawMessage]

func isEnvelope(e rawEnvelope) bool {
	return e.Code != nil || e.Message != ""
}

// resolveURL joins path onto base; absolute URLs pass through unchanged.
func resolveURL(base, path string, query url.Values) (string, error) {
	target := path
	if u, err := url.Parse(path); err != nil || !u.IsAbs() {
		target = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
