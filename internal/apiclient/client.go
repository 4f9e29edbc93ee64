package apiclient

// Package apiclient is the request pipeline: it attaches the session credential,
// unwraps response envelopes and turns every failure into an *errors.APIError.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	apperrors "github.com/target/mmk-ui-client/internal/errors"
	obserrors "github.com/target/mmk-ui-client/internal/observability/errors"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/observability/notify"
	"github.com/target/mmk-ui-client/internal/ports"
)

const (
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second
	// HeaderRequestID carries a per-request UUID.
	HeaderRequestID = "X-Request-Id"

	maxBodyBytes = 4 << 20
)

// Publisher receives session invalidation events.
type Publisher interface {
	Publish(ctx context.Context, ev notify.SessionInvalidated)
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	SuccessCode int
	Session     ports.ClientSession
	Events      Publisher
	Logger      *slog.Logger
	// Debug logs every request and response, mirroring dev-mode console logging.
	Debug   bool
	Metrics *metrics.ClientMetrics
	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
}

// Client sends API requests on behalf of the session.
type Client struct {
	baseURL     string
	successCode int
	session     ports.ClientSession
	events      Publisher
	logger      *slog.Logger
	debug       bool
	metrics     *metrics.ClientMetrics
	http        *http.Client
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("api base url is required")
	}
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}

	return &Client{
		baseURL:     strings.TrimSpace(opts.BaseURL),
		successCode: opts.SuccessCode,
		session:     opts.Session,
		events:      opts.Events,
		logger:      logger.With("component", "api_client"),
		debug:       opts.Debug,
		metrics:     opts.Metrics,
		http:        hc,
	}, nil
}

// Get issues a GET and returns the envelope's data.
func (c *Client) Get(ctx context.Context, path string, cfg RequestConfig) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil, cfg)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, cfg RequestConfig) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body, cfg)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, cfg RequestConfig) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, body, cfg)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, cfg RequestConfig) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, path, body, cfg)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, cfg RequestConfig) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, cfg)
}

// Do sends a JSON request. A nil body sends no body.
func (c *Client) Do(ctx context.Context, method, path string, body any, cfg RequestConfig) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrapf(err, "encode request body")
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, reader, cfg)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.debug {
		c.logger.DebugContext(ctx, "api request", "method", method, "url", req.URL.String(), "body", body, "query", cfg.Query)
	}
	return c.send(req, cfg)
}

// newRequest runs the request phase: URL, request ID and credential.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, cfg RequestConfig) (*http.Request, error) {
	target, err := resolveURL(c.baseURL, path, cfg.Query)
	if err != nil {
		return nil, apperrors.Wrapf(err, "invalid request url %q", path)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperrors.Wrapf(err, "build request")
	}

	for k, vs := range cfg.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	if !cfg.SkipAuth {
		if cred := c.session.Credential(); !cred.IsZero() {
			tok := &oauth2.Token{AccessToken: string(cred), TokenType: "Bearer"}
			tok.SetAuthHeader(req)
		}
	}
	return req, nil
}

// send dispatches req and runs the response phase.
func (c *Client) send(req *http.Request, cfg RequestConfig) (json.RawMessage, error) {
	ctx := req.Context()
	start := time.Now()

	data, err := c.roundTrip(req)
	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = obserrors.Classify(err)
		c.handleFailure(ctx, req, err, cfg)
	}
	c.metrics.ObserveRequest(req.Method, outcome, time.Since(start))
	return data, err
}

func (c *Client) roundTrip(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Normalize(apperrors.Failure{TransportErr: err})
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", "error", cerr)
		}
	}()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if c.debug {
		c.logger.DebugContext(req.Context(), "api response",
			"method", req.Method,
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"body", truncate(body, 512),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Normalize(errorFailure(resp.StatusCode, body, readErr))
	}
	if readErr != nil {
		return nil, apperrors.Normalize(apperrors.Failure{
			StatusCode:   resp.StatusCode,
			TransportErr: fmt.Errorf("read response body: %w", readErr),
		})
	}
	return c.unwrap(resp.StatusCode, body)
}

// unwrap resolves a 2xx body to its data or a business error. Only an
// envelope whose code equals the success code resolves; an empty body is
// accepted for 204 No Content alone.
func (c *Client) unwrap(status int, body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		if status == http.StatusNoContent {
			return nil, nil
		}
		return nil, apperrors.Normalize(apperrors.Failure{StatusCode: status})
	}
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.Normalize(apperrors.Failure{
			StatusCode:   status,
			TransportErr: fmt.Errorf("decode envelope: %w", err),
		})
	}
	if env.Code == nil {
		return nil, apperrors.Normalize(apperrors.Failure{
			StatusCode: status,
			Envelope:   &apperrors.EnvelopeFields{Code: status, Data: rawDetails(env.Data)},
		})
	}
	if *env.Code == c.successCode {
		return env.Data, nil
	}
	return nil, apperrors.Normalize(apperrors.Failure{
		StatusCode: status,
		Envelope:   &apperrors.EnvelopeFields{Code: *env.Code, Message: env.Message, Data: rawDetails(env.Data)},
	})
}

func errorFailure(status int, body []byte, readErr error) apperrors.Failure {
	f := apperrors.Failure{StatusCode: status}
	if readErr != nil {
		f.TransportErr = fmt.Errorf("read error body: %w", readErr)
	}
	var decoded rawEnvelope
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil && isEnvelope(decoded) {
		code := status
		if decoded.Code != nil {
			code = *decoded.Code
		}
		f.Envelope = &apperrors.EnvelopeFields{Code: code, Message: decoded.Message, Data: rawDetails(decoded.Data)}
	}
	return f
}

// handleFailure applies the global reactions to a failed call.
func (c *Client) handleFailure(ctx context.Context, req *http.Request, err error, cfg RequestConfig) {
	apiErr, ok := apperrors.As(err)
	if ok && apiErr.Kind == apperrors.KindAuth {
		c.invalidateSession(ctx, req)
	}
	if cfg.SkipErrorHandling {
		return
	}
	c.logger.WarnContext(ctx, "api request failed",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(HeaderRequestID),
		"error_class", obserrors.Classify(err),
		"error", err,
	)
}

// invalidateSession clears the credential and announces it after a 401.
func (c *Client) invalidateSession(ctx context.Context, req *http.Request) {
	if err := c.session.ClearCredential(ctx); err != nil {
		c.logger.WarnContext(ctx, "clear credential after 401 failed", "error", err)
	}
	c.metrics.IncSessionInvalidated()
	c.logger.WarnContext(ctx, "session invalidated by backend", "method", req.Method, "path", req.URL.Path)

	if c.events == nil {
		return
	}
	// Delivery must not be cut short by the caller's cancelled request context.
	c.events.Publish(context.WithoutCancel(ctx), notify.SessionInvalidated{
		Reason:     notify.ReasonUnauthorized,
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: http.StatusUnauthorized,
		RequestID:  req.Header.Get(HeaderRequestID),
	})
}

func rawDetails(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(trimmed)
	}
	return v
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
