package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-ui-client/internal/domain/route"
	apperrors "github.com/target/mmk-ui-client/internal/errors"
	mockauth "github.com/target/mmk-ui-client/internal/mocks/auth"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/observability/notify"
	"github.com/target/mmk-ui-client/internal/service"
)

type pipeline struct {
	client   *Client
	sessions *service.SessionStore
	storage  *mockauth.MemoryCredentialStorage
	bus      *notify.Bus
	metrics  *metrics.ClientMetrics
}

func newPipeline(t *testing.T, handler http.HandlerFunc) pipeline {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	storage := mockauth.NewMemoryCredentialStorage()
	sessions, err := service.NewSessionStore(service.SessionStoreOptions{Storage: storage})
	require.NoError(t, err)
	bus := notify.NewBus(notify.BusOptions{})
	m := metrics.NewClientMetrics(prometheus.NewRegistry())

	client, err := New(Options{
		BaseURL: srv.URL + "/api",
		Timeout: 2 * time.Second,
		Session: sessions,
		Events:  bus,
		Debug:   true,
		Metrics: m,
	})
	require.NoError(t, err)
	return pipeline{client: client, sessions: sessions, storage: storage, bus: bus, metrics: m}
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status, code int, data any, msg string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{"code": code, "data": data, "message": msg}))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	_, err = New(Options{BaseURL: "http://x"})
	require.Error(t, err)
}

func TestClient_AttachesCredential(t *testing.T) {
	var gotAuth, gotReqID atomic.Value
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotReqID.Store(r.Header.Get(HeaderRequestID))
		assert.Equal(t, "/api/user/info", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, 0, map[string]string{"id": "1"}, "ok")
	})
	ctx := context.Background()
	require.NoError(t, p.sessions.SetCredential(ctx, "abc"))

	_, err := p.client.Get(ctx, "/user/info", RequestConfig{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth.Load())
	assert.NotEmpty(t, gotReqID.Load())
}

func TestClient_NoCredentialNoHeader(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, 0, nil, "")
	})
	_, err := p.client.Get(context.Background(), "/public", RequestConfig{})
	require.NoError(t, err)
}

func TestClient_SkipAuthNeverAttaches(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeEnvelope(t, w, http.StatusOK, 0, map[string]string{"token": "t"}, "")
	})
	ctx := context.Background()
	require.NoError(t, p.sessions.SetCredential(ctx, "abc"))

	_, err := p.client.Post(ctx, "/auth/login", map[string]string{"username": "u"}, RequestConfig{SkipAuth: true})
	require.NoError(t, err)
}

func TestClient_SuccessUnwrapsData(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeEnvelope(t, w, http.StatusOK, 0, map[string]any{"id": "1", "username": "admin"}, "ok")
	})

	type user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	got, err := Get[user](context.Background(), p.client, "/user/info", RequestConfig{Query: url.Values{"page": {"2"}}})
	require.NoError(t, err)
	assert.Equal(t, user{ID: "1", Username: "admin"}, got)
	assert.Equal(t, 1.0, promtest.ToFloat64(p.metrics.RequestsTotal.WithLabelValues("GET", metrics.ResultSuccess)))
}

func TestClient_BusinessFailure(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, 1002, map[string]string{"field": "username"}, "username taken")
	})

	_, err := p.client.Post(context.Background(), "/users", map[string]string{}, RequestConfig{})
	require.Error(t, err)

	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 1002, apiErr.Code)
	assert.Equal(t, "username taken", apiErr.Message)
	assert.Equal(t, apperrors.KindBusiness, apiErr.Kind)
	assert.Equal(t, map[string]any{"field": "username"}, apiErr.Details)
}

func TestClient_BusinessFailureFallbackMessage(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, 7, nil, "")
	})
	_, err := p.client.Get(context.Background(), "/x", RequestConfig{})
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.MessageFallback, apiErr.Message)
}

func TestClient_CustomSuccessCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, 200, "pong", "")
	}))
	t.Cleanup(srv.Close)
	sessions, err := service.NewSessionStore(service.SessionStoreOptions{Storage: mockauth.NewMemoryCredentialStorage()})
	require.NoError(t, err)
	client, err := New(Options{BaseURL: srv.URL, SuccessCode: 200, Session: sessions})
	require.NoError(t, err)

	got, err := Get[string](context.Background(), client, "ping", RequestConfig{})
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestClient_StatusFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		kind    apperrors.Kind
	}{
		{"403 table message", http.StatusForbidden, "", "permission denied", apperrors.KindPermission},
		{"404 plain text body", http.StatusNotFound, "nope", "resource not found", apperrors.KindNotFound},
		{"500 envelope message wins", http.StatusInternalServerError, `{"code":5001,"message":"quota exhausted"}`, "quota exhausted", apperrors.KindServer},
		{"unmapped status", http.StatusTeapot, "", apperrors.MessageFallback, apperrors.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := p.client.Get(context.Background(), "/x", RequestConfig{})
			apiErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.kind, apiErr.Kind)
		})
	}
}

func TestClient_UnauthorizedInvalidatesSession(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()
	require.NoError(t, p.sessions.SetCredential(ctx, "abc"))

	tbl, err := route.NewTable(route.TableConfig{LoginPath: "/login", HomePath: "/"}, route.DefaultRoutes("/login"))
	require.NoError(t, err)
	nav, err := service.NewNavigator(service.NavigatorOptions{Routes: tbl, Session: p.sessions, Events: p.bus})
	require.NoError(t, err)
	t.Cleanup(nav.Close)
	_, err = nav.Navigate(ctx, "/demo")
	require.NoError(t, err)

	var events []notify.SessionInvalidated
	p.bus.Subscribe("recorder", notify.SinkFunc(func(_ context.Context, ev notify.SessionInvalidated) error {
		events = append(events, ev)
		return nil
	}))

	_, err = p.client.Get(ctx, "/user/info", RequestConfig{SkipErrorHandling: true})
	require.Error(t, err)

	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.Code)
	assert.Equal(t, "session expired", apiErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrAuth)

	assert.False(t, p.sessions.IsAuthenticated())
	_, stored := p.storage.Stored()
	assert.False(t, stored)

	cur, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "/login", cur.Route.Path)

	require.Len(t, events, 1)
	assert.Equal(t, notify.ReasonUnauthorized, events[0].Reason)
	assert.Equal(t, "/api/user/info", events[0].Path)
	assert.NotEmpty(t, events[0].RequestID)
	assert.Equal(t, 1.0, promtest.ToFloat64(p.metrics.SessionInvalidations))
}

func TestClient_UnauthorizedWithEnvelopeBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
		skip    bool
	}{
		{"success code envelope", `{"code":0,"data":{"id":"1"},"message":""}`, "session expired", false},
		{"success code envelope skip handling", `{"code":0,"data":{"id":"1"},"message":""}`, "session expired", true},
		{"business message envelope", `{"code":4010,"message":"token revoked"}`, "token revoked", false},
		{"business message envelope skip handling", `{"code":4010,"message":"token revoked"}`, "token revoked", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, tt.body)
			})
			ctx := context.Background()
			require.NoError(t, p.sessions.SetCredential(ctx, "abc"))

			tbl, err := route.NewTable(route.TableConfig{LoginPath: "/login", HomePath: "/"}, route.DefaultRoutes("/login"))
			require.NoError(t, err)
			nav, err := service.NewNavigator(service.NavigatorOptions{Routes: tbl, Session: p.sessions, Events: p.bus})
			require.NoError(t, err)
			t.Cleanup(nav.Close)
			_, err = nav.Navigate(ctx, "/demo")
			require.NoError(t, err)

			data, err := p.client.Get(ctx, "/user/info", RequestConfig{SkipErrorHandling: tt.skip})
			require.Error(t, err)
			assert.Nil(t, data)

			apiErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, 401, apiErr.Code)
			assert.Equal(t, apperrors.KindAuth, apiErr.Kind)
			assert.Equal(t, tt.wantMsg, apiErr.Message)

			assert.False(t, p.sessions.IsAuthenticated())
			_, stored := p.storage.Stored()
			assert.False(t, stored)

			cur, ok := nav.Current()
			require.True(t, ok)
			assert.Equal(t, "/login", cur.Route.Path)
		})
	}
}

func TestClient_SlowNotificationDoesNotDelayCaller(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	ctx := context.Background()
	require.NoError(t, p.sessions.SetCredential(ctx, "abc"))

	tbl, err := route.NewTable(route.TableConfig{LoginPath: "/login", HomePath: "/"}, route.DefaultRoutes("/login"))
	require.NoError(t, err)
	nav, err := service.NewNavigator(service.NavigatorOptions{Routes: tbl, Session: p.sessions, Events: p.bus})
	require.NoError(t, err)
	t.Cleanup(nav.Close)

	release := make(chan struct{})
	var delivered atomic.Int32
	p.bus.SubscribeAsync("webhook", notify.SinkFunc(func(ctx context.Context, _ notify.SessionInvalidated) error {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		delivered.Add(1)
		return nil
	}))
	t.Cleanup(func() {
		close(release)
		assert.NoError(t, p.bus.Drain(context.Background()))
		assert.Equal(t, int32(1), delivered.Load())
	})

	start := time.Now()
	_, err = p.client.Get(ctx, "/user/info", RequestConfig{})
	elapsed := time.Since(start)

	assert.True(t, apperrors.IsAuth(err))
	assert.Less(t, elapsed, 300*time.Millisecond)

	// The navigator stays synchronous: the redirect has happened by the time Get returns.
	cur, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "/login", cur.Route.Path)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	sessions, err := service.NewSessionStore(service.SessionStoreOptions{Storage: mockauth.NewMemoryCredentialStorage()})
	require.NoError(t, err)
	client, err := New(Options{BaseURL: base, Timeout: time.Second, Session: sessions})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/x", RequestConfig{})
	apiErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.NetworkCode, apiErr.Code)
	assert.Equal(t, apperrors.MessageNetwork, apiErr.Message)
	assert.True(t, apperrors.IsNetwork(err))
	assert.NotNil(t, apiErr.Cause)
}

func TestClient_TimeoutIsNetworkFailure(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-block }))
	t.Cleanup(func() { close(block); srv.Close() })

	sessions, err := service.NewSessionStore(service.SessionStoreOptions{Storage: mockauth.NewMemoryCredentialStorage()})
	require.NoError(t, err)
	client, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Session: sessions})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/slow", RequestConfig{})
	assert.True(t, apperrors.IsNetwork(err))
}

func TestClient_NoContentIsSuccess(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	got, err := Delete[map[string]any](context.Background(), p.client, "/items/1", RequestConfig{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_SuccessStatusWithoutEnvelopeCode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"data without code", `{"data":{"x":1}}`},
		{"non-envelope object", `{"error":"boom"}`},
		{"non-envelope array", `[1,2,3]`},
		{"empty 200 body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := p.client.Get(context.Background(), "/x", RequestConfig{})
			require.Error(t, err)
			assert.Nil(t, got)

			apiErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindBusiness, apiErr.Kind)
			assert.Equal(t, apperrors.MessageFallback, apiErr.Message)
			assert.Equal(t, http.StatusOK, apiErr.Code)
		})
	}
}

func TestClient_VerbsAndBody(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&in)
		}
		writeEnvelope(t, w, http.StatusOK, 0, map[string]any{"method": r.Method, "in": in}, "")
	})
	ctx := context.Background()

	type echo struct {
		Method string         `json:"method"`
		In     map[string]any `json:"in"`
	}
	for _, tc := range []struct {
		method string
		call   func() (echo, error)
	}{
		{http.MethodPost, func() (echo, error) {
			return Post[echo](ctx, p.client, "/e", map[string]any{"a": 1.0}, RequestConfig{})
		}},
		{http.MethodPut, func() (echo, error) { return Put[echo](ctx, p.client, "/e", map[string]any{"a": 1.0}, RequestConfig{}) }},
		{http.MethodPatch, func() (echo, error) {
			return Patch[echo](ctx, p.client, "/e", map[string]any{"a": 1.0}, RequestConfig{})
		}},
	} {
		got, err := tc.call()
		require.NoError(t, err)
		assert.Equal(t, tc.method, got.Method)
		assert.Equal(t, map[string]any{"a": 1.0}, got.In)
	}
}

func TestClient_DecodeMismatch(t *testing.T) {
	p := newPipeline(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(t, w, http.StatusOK, 0, "not-a-number", "")
	})
	_, err := Get[int](context.Background(), p.client, "/n", RequestConfig{})
	require.Error(t, err)
	_, ok := apperrors.As(err)
	assert.True(t, ok)
}

func TestResolveURL(t *testing.T) {
	got, err := resolveURL("http://h/api/", "/user/info", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://h/api/user/info", got)

	got, err = resolveURL("http://h/api", "https://other/x", url.Values{"a": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "https://other/x?a=1", got)
}
