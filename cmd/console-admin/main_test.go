package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-ui-client/config"
)

type fakeBackend struct {
	*httptest.Server
	uploaded atomic.Value
}

func envelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "message": "ok", "data": data})
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":1001,"message":"wrong password"}`))
			return
		}
		envelope(w, map[string]any{"token": "tok-123", "user": map[string]any{"id": "1", "username": "ada"}})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) { envelope(w, nil) })
	mux.HandleFunc("GET /user/info", authed(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, map[string]any{"id": "1", "username": "ada"})
	}))
	mux.HandleFunc("GET /api/health/metrics/today", authed(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, map[string]any{"steps": 8042, "heartRate": 61, "sleepHours": 7.5, "water": 1500, "calories": 2100})
	}))
	mux.HandleFunc("GET /api/health/schedule/today", authed(func(w http.ResponseWriter, _ *http.Request) {
		envelope(w, []map[string]any{{"id": "s1", "title": "Walk", "time": "08:00", "completed": true}})
	}))
	mux.HandleFunc("GET /api/health/schedule/history", authed(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		envelope(w, map[string]any{
			"list":     []map[string]any{{"id": "h" + strconv.Itoa(page), "title": "Stretch", "time": "07:00"}},
			"total":    2,
			"page":     page,
			"pageSize": 1,
		})
	}))
	mux.HandleFunc("POST /files", authed(func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		fb.uploaded.Store(string(data))
		envelope(w, map[string]any{"size": len(data)})
	}))
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

type harness struct {
	cfg config.AppConfig
	out *bytes.Buffer
	err *bytes.Buffer
}

func newHarness(t *testing.T, baseURL string) *harness {
	t.Helper()
	cfg := config.AppConfig{
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		Storage: config.StorageConfig{Backend: config.StorageBackendFile, Path: t.TempDir()},
		Routes:  config.RouteConfig{LoginPath: "/login", HomePath: "/", AppTitle: "Console"},
	}
	cfg.Sanitize()
	return &harness{cfg: cfg, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
}

func (h *harness) run(t *testing.T, stdin string, name string, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	cmd, ok := commands()[name]
	require.True(t, ok, "unknown command %s", name)
	return cmd.run(&commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: h.cfg,
		In:     strings.NewReader(stdin),
		Out:    h.out,
		Err:    h.err,
	}, args)
}

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: console-admin")
	assert.Less(t, strings.Index(out, "clear-credential"), strings.Index(out, "login"))
	assert.Less(t, strings.Index(out, "login"), strings.Index(out, "upload"))
}

func TestLoginStatusLogout(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)

	require.NoError(t, h.run(t, "", "login", "--username", "ada", "--password", "secret"))
	assert.Contains(t, h.out.String(), "Signed in as ada")

	// A new invocation restores the persisted credential.
	require.NoError(t, h.run(t, "", "status"))
	out := h.out.String()
	assert.Contains(t, out, "Authenticated:  true")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "tok-****")
	assert.NotContains(t, out, "tok-123")

	require.NoError(t, h.run(t, "", "logout"))
	assert.Contains(t, h.out.String(), "Signed out")

	require.NoError(t, h.run(t, "", "status"))
	assert.Contains(t, h.out.String(), "Authenticated:  false")
}

func TestLoginRejected(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)

	err := h.run(t, "", "login", "--username", "ada", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")
}

func TestLoginFlags(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	t.Run("password from stdin", func(t *testing.T) {
		opts, err := parseLoginFlags(&commandContext{In: strings.NewReader("s3cr3t\n"), Err: io.Discard},
			[]string{"--username", " ada ", "--password-stdin"})
		require.NoError(t, err)
		assert.Equal(t, "ada", opts.Username)
		assert.Equal(t, "s3cr3t", opts.Password)
	})

	t.Run("missing username", func(t *testing.T) {
		assert.ErrorContains(t, h.run(t, "", "login", "--password", "x"), "--username")
	})

	t.Run("conflicting password sources", func(t *testing.T) {
		assert.ErrorContains(t, h.run(t, "x\n", "login", "--username", "a", "--password", "x", "--password-stdin"),
			"mutually exclusive")
	})
}

func TestNavigateGuard(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)

	require.NoError(t, h.run(t, "", "navigate", "/demo"))
	out := h.out.String()
	assert.Contains(t, out, "redirect-login")
	assert.Contains(t, out, "/login?redirect=/demo")

	require.NoError(t, h.run(t, "", "login", "--username", "ada", "--password", "secret"))
	require.NoError(t, h.run(t, "", "navigate", "/login"))
	assert.Contains(t, h.out.String(), "Home")

	assert.ErrorContains(t, h.run(t, "", "navigate"), "usage")
}

func TestRoutes(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	require.NoError(t, h.run(t, "", "routes"))
	assert.Contains(t, h.out.String(), "/demo")
	assert.NotContains(t, h.out.String(), "StyleTest")

	require.NoError(t, h.run(t, "", "routes", "--all"))
	assert.Contains(t, h.out.String(), "StyleTest")
}

func TestClearCredentialRequiresConfirmation(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)
	require.NoError(t, h.run(t, "", "login", "--username", "ada", "--password", "secret"))

	assert.ErrorContains(t, h.run(t, "n\n", "clear-credential"), "aborted")

	require.NoError(t, h.run(t, "y\n", "clear-credential"))
	assert.Contains(t, h.out.String(), "Credential removed")

	require.NoError(t, h.run(t, "", "status"))
	assert.Contains(t, h.out.String(), "Authenticated:  false")
}

func TestHealthAndHistory(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)
	require.NoError(t, h.run(t, "", "login", "--username", "ada", "--password", "secret"))

	require.NoError(t, h.run(t, "", "health"))
	out := h.out.String()
	assert.Contains(t, out, "8042")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "Walk")

	require.NoError(t, h.run(t, "", "schedule-history", "--page-size", "1", "--all"))
	out = h.out.String()
	assert.Contains(t, out, "h1")
	assert.Contains(t, out, "h2")

	assert.Error(t, h.run(t, "", "schedule-history", "--page", "0"))
}

func TestHealthUnauthorizedClearsSession(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)

	err := h.run(t, "", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dashboard")
}

func TestUpload(t *testing.T) {
	backend := newFakeBackend(t)
	h := newHarness(t, backend.URL)
	require.NoError(t, h.run(t, "", "login", "--username", "ada", "--password", "secret"))

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))

	require.NoError(t, h.run(t, "", "upload", "--file", path, "--to", "/files"))
	assert.Equal(t, "a,b\n1,2\n", backend.uploaded.Load())
	assert.Contains(t, h.out.String(), `"size": 8`)
	assert.Contains(t, h.err.String(), "100%")

	assert.ErrorContains(t, h.run(t, "", "upload", "--file", path), "--to")
}
