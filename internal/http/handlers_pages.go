package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-ui-client/internal/api"
	"github.com/target/mmk-ui-client/internal/domain/route"
	apperrors "github.com/target/mmk-ui-client/internal/errors"
	"github.com/target/mmk-ui-client/internal/service"
)

// StatusSource reports the current client session.
type StatusSource interface {
	Status() service.Status
}

// Dashboard is the backend data shown on the home page.
type Dashboard interface {
	TodayMetrics(ctx context.Context) (api.HealthMetrics, error)
	TodaySchedule(ctx context.Context) ([]api.ScheduleItem, error)
	CompleteSchedule(ctx context.Context, id string) error
}

// PageHandlers renders console pages resolved by NavigationGuard.
type PageHandlers struct {
	Renderer  *TemplateRenderer
	Routes    *route.Table
	Session   StatusSource
	Dashboard Dashboard
	AppTitle  string
	Logger    *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Page serves GET requests for every route in the table.
func (h *PageHandlers) Page(w http.ResponseWriter, r *http.Request) {
	rt, ok := RouteFromContext(r.Context())
	if !ok {
		rt = h.Routes.Resolve(r.URL.Path)
	}

	data := h.pageData(r, rt)
	status := http.StatusOK
	switch {
	case rt.IsErrorPage():
		status = http.StatusNotFound
	case rt.IsAuthPage():
		data.Redirect = h.Routes.ResumePath(r.URL.RawQuery)
	case rt.Name == h.Routes.Home().Name && h.Dashboard != nil:
		if err := h.loadDashboard(r.Context(), &data); err != nil {
			if apperrors.IsAuth(err) {
				// The client already dropped the credential; send the user back through login.
				redirect(w, r, h.Routes.LoginLocation(r.URL.RequestURI()))
				return
			}
			h.logger().WarnContext(r.Context(), "dashboard load failed", "error", err)
			data.Error = userMessage(err)
		}
	}

	h.render(w, r, status, data)
}

// CompleteSchedule marks a schedule item done.
// POST /schedule/{id}/complete.
func (h *PageHandlers) CompleteSchedule(w http.ResponseWriter, r *http.Request) {
	if !h.Session.Status().Authenticated {
		h.unauthorized(w, r)
		return
	}
	if err := h.Dashboard.CompleteSchedule(r.Context(), r.PathValue("id")); err != nil {
		if apperrors.IsAuth(err) {
			h.unauthorized(w, r)
			return
		}
		WriteAPIError(w, err)
		return
	}
	HTMX(w).Trigger("schedule-updated", map[string]string{"id": r.PathValue("id")}).NoContent()
}

func (h *PageHandlers) unauthorized(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		SetHXRedirect(w, h.Routes.Login().Path)
	}
	WriteAPIError(w, service.ErrNoCredential)
}

func (h *PageHandlers) loadDashboard(ctx context.Context, data *PageData) error {
	var (
		metrics  api.HealthMetrics
		schedule []api.ScheduleItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = h.Dashboard.TodayMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		schedule, err = h.Dashboard.TodaySchedule(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	data.Metrics = &metrics
	data.Schedule = schedule
	return nil
}

func (h *PageHandlers) pageData(r *http.Request, rt route.Route) PageData {
	return PageData{
		Title:       route.PageTitle(rt, h.AppTitle),
		AppTitle:    h.AppTitle,
		Route:       rt,
		CurrentPath: r.URL.Path,
		Nav:         h.Routes.Visible(),
		Status:      h.Session.Status(),
		CSRFToken:   CSRFToken(r),
	}
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	if err := h.Renderer.Render(w, r, status, data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// userMessage returns the message a page shows for err.
func userMessage(err error) string {
	if apiErr, ok := apperrors.As(err); ok {
		return apiErr.Message
	}
	return apperrors.MessageFallback
}
