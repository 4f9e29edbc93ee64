package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-ui-client/internal/api"
	"github.com/target/mmk-ui-client/internal/domain/route"
	mockauth "github.com/target/mmk-ui-client/internal/mocks/auth"
	"github.com/target/mmk-ui-client/internal/observability/metrics"
	"github.com/target/mmk-ui-client/internal/service"
)

// fakeDashboard is a hand-written Dashboard double.
type fakeDashboard struct {
	mu        sync.Mutex
	metrics   api.HealthMetrics
	schedule  []api.ScheduleItem
	err       error
	completed []string
}

func (f *fakeDashboard) TodayMetrics(context.Context) (api.HealthMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics, f.err
}

func (f *fakeDashboard) TodaySchedule(context.Context) ([]api.ScheduleItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule, f.err
}

func (f *fakeDashboard) CompleteSchedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, id)
	return nil
}

type consoleFixture struct {
	handler   http.Handler
	sessions  *service.SessionStore
	auth      *service.AuthService
	api       *mockauth.StubAuthAPI
	dashboard *fakeDashboard
	registry  *prometheus.Registry
}

func newConsoleFixture(t *testing.T) consoleFixture {
	t.Helper()

	tbl, err := route.NewTable(route.TableConfig{LoginPath: "/login", HomePath: "/"}, route.DefaultRoutes("/login"))
	require.NoError(t, err)

	sessions, err := service.NewSessionStore(service.SessionStoreOptions{Storage: mockauth.NewMemoryCredentialStorage()})
	require.NoError(t, err)

	stub := mockauth.NewStubAuthAPI()
	authSvc, err := service.NewAuthService(service.AuthServiceOptions{API: stub, Sessions: sessions})
	require.NoError(t, err)

	nav, err := service.NewNavigator(service.NavigatorOptions{Routes: tbl, Session: sessions, AppTitle: "Console"})
	require.NoError(t, err)
	t.Cleanup(nav.Close)

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	dash := &fakeDashboard{
		metrics:  api.HealthMetrics{Steps: 4200, HeartRate: 61},
		schedule: []api.ScheduleItem{{ID: "s1", Title: "Morning walk", Time: "07:00"}},
	}

	h, err := NewRouter(RouterServices{
		Routes:         tbl,
		Guard:          nav,
		Auth:           authSvc,
		Dashboard:      dash,
		Renderer:       renderer,
		AppTitle:       "Console",
		MetricsHandler: metrics.Handler(reg),
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
	})
	require.NoError(t, err)

	return consoleFixture{
		handler:   h,
		sessions:  sessions,
		auth:      authSvc,
		api:       stub,
		dashboard: dash,
		registry:  reg,
	}
}

func (f consoleFixture) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func (f consoleFixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

const testCSRFToken = "test-csrf-token"

// withCSRF sets the double-submit cookie and echoes it in the header, as htmx does.
func withCSRF(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	r.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	return r
}

// postForm submits form the way the browser does: cookie plus csrf_token field.
func (f consoleFixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	form.Set(DefaultCSRFCookieName, testCSRFToken)
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	return f.do(r)
}

func (f consoleFixture) login(t *testing.T) {
	t.Helper()
	rec := f.postForm("/login", url.Values{"username": {"mock.user"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
}
