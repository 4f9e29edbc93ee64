package apiclient

import (
	"bytes"
	"context"
	"encoding/json"

	apperrors "github.com/target/mmk-ui-client/internal/errors"
)

// Get issues a GET and decodes the envelope's data into T.
func Get[T any](ctx context.Context, c *Client, path string, cfg RequestConfig) (T, error) {
	return decode[T](c.Get(ctx, path, cfg))
}

// Post issues a POST and decodes the envelope's data into T.
func Post[T any](ctx context.Context, c *Client, path string, body any, cfg RequestConfig) (T, error) {
	return decode[T](c.Post(ctx, path, body, cfg))
}

// Put issues a PUT and decodes the envelope's data into T.
func Put[T any](ctx context.Context, c *Client, path string, body any, cfg RequestConfig) (T, error) {
	return decode[T](c.Put(ctx, path, body, cfg))
}

// Patch issues a PATCH and decodes the envelope's data into T.
func Patch[T any](ctx context.Context, c *Client, path string, body any, cfg RequestConfig) (T, error) {
	return decode[T](c.Patch(ctx, path, body, cfg))
}

// Delete issues a DELETE and decodes the envelope's data into T.
func Delete[T any](ctx context.Context, c *Client, path string, cfg RequestConfig) (T, error) {
	return decode[T](c.Delete(ctx, path, cfg))
}

func decode[T any](raw json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, apperrors.Wrapf(err, "decode response data")
	}
	return out, nil
}
